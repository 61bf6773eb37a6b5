package compose

import "errors"

var (
	// ErrConfig indicates an invalid configuration value.
	ErrConfig = errors.New("invalid compose config")

	// ErrInstructions indicates the instruction builder failed.
	ErrInstructions = errors.New("build instructions")

	// ErrToolSchema indicates a tool schema could not be derived or encoded.
	ErrToolSchema = errors.New("tool schema")
)
