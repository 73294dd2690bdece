package domain

import "errors"

var (
	// ErrInvalidConfig is returned when a component is constructed with unusable parameters.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidInput is returned for caller mistakes such as a non-positive k.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDimensionMismatch is returned when a vector does not have the configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrLengthMismatch is returned when chunk and vector slices differ in length.
	ErrLengthMismatch = errors.New("chunks and vectors length mismatch")

	// ErrModelLoad is returned when the embedding model cannot be initialised.
	ErrModelLoad = errors.New("embedding model load failed")
)
