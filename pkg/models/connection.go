package models

import "time"

// Connection holds stored integration credentials for one app. Steps
// reference a connection by ID; they never own it.
type Connection struct {
	ID        string         `json:"id"`
	AppKey    string         `json:"app_key" validate:"required"`
	Data      map[string]any `json:"data"`
	Verified  bool           `json:"verified"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
