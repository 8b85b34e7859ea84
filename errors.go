package authui

import "errors"

var (
	// ErrNotAuthenticated is returned by operations that need a session token
	// when none is held.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrManagerClosed is returned by Manager operations after Close.
	ErrManagerClosed = errors.New("manager closed")
	// ErrBuilderUsed is returned when Build is called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)
