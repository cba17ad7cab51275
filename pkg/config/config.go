// Package config carries the process-wide settings derived fields are
// computed from.
package config

import "os"

const (
	defaultWebhookBaseURL = "http://localhost:3000"
	defaultAssetBaseURL   = "http://localhost:3000"
)

// Config is read once at startup and treated as immutable afterwards.
type Config struct {
	// WebhookBaseURL is the externally reachable origin webhook paths are
	// appended to.
	WebhookBaseURL string

	// AssetBaseURL is the origin app icon paths are served from.
	AssetBaseURL string
}

// FromEnv builds a Config from WEBHOOK_URL and ASSET_URL with local
// defaults.
func FromEnv() *Config {
	return &Config{
		WebhookBaseURL: envOr("WEBHOOK_URL", defaultWebhookBaseURL),
		AssetBaseURL:   envOr("ASSET_URL", defaultAssetBaseURL),
	}
}

func envOr(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}

	return fallback
}
