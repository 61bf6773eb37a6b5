package model

import "errors"

// Registry errors.
var (
	// ErrInvalidTemplate is returned when registering a template without a
	// name, a builder, or any way to match.
	ErrInvalidTemplate = errors.New("invalid instruction template")

	// ErrDuplicateTemplate is returned when a template name is registered
	// twice.
	ErrDuplicateTemplate = errors.New("instruction template already registered")

	// ErrCatalog indicates the instruction catalog could not be loaded.
	ErrCatalog = errors.New("invalid instruction catalog")
)
