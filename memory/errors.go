package memory

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidShape is returned when a memory is created with a
	// non-positive domain or size.
	ErrInvalidShape = errors.New("memory domain and size must be positive")

	// ErrCorruptSnapshot is returned when a snapshot cannot be decoded.
	ErrCorruptSnapshot = errors.New("corrupt memory snapshot")
)

// ErrInvalidDimension indicates that a vector's length differs from the
// memory's domain.
type ErrInvalidDimension struct {
	Expected int
	Actual   int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidLevel indicates a coordinate outside [0, size).
type ErrInvalidLevel struct {
	Dimension int
	Level     int
	Size      int
}

func (e *ErrInvalidLevel) Error() string {
	return fmt.Sprintf("invalid level %d at dimension %d: must be in [0, %d)", e.Level, e.Dimension, e.Size)
}
