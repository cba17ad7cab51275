package app

import "errors"

var (
	// ErrEmptyAppKey indicates an app was registered without a key.
	ErrEmptyAppKey = errors.New("app key cannot be empty")

	// ErrDuplicateAppKey indicates two apps were registered under one key.
	ErrDuplicateAppKey = errors.New("app key already registered")

	// ErrInvalidParameters indicates a step's parameter bag does not satisfy
	// the resolved command's setup fields.
	ErrInvalidParameters = errors.New("invalid step parameters")
)
