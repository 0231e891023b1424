package assocmem

import (
	"errors"
	"fmt"

	"github.com/hupe1980/assocmem/arbiter"
	"github.com/hupe1980/assocmem/bank"
	"github.com/hupe1980/assocmem/memory"
)

var (
	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("invalid experiment config")

	// ErrEmptyCandidateSet is returned when arbitration is asked to choose
	// from nothing.
	ErrEmptyCandidateSet = errors.New("empty candidate set")

	// ErrTooFewSamples is returned when a fold cannot fill even one stage.
	ErrTooFewSamples = errors.New("too few samples")

	// ErrNoResults is returned by Summarize when no fold succeeded.
	ErrNoResults = errors.New("no successful fold results")
)

// ErrInvalidDimension indicates a code whose length differs from the domain.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidDimension struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }

// ErrInvalidLevel indicates a code value outside [0, size).
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrInvalidLevel struct {
	Dimension int
	Level     int
	Size      int
	cause     error
}

func (e *ErrInvalidLevel) Error() string {
	return fmt.Sprintf("invalid level %d at dimension %d for size %d", e.Level, e.Dimension, e.Size)
}

func (e *ErrInvalidLevel) Unwrap() error { return e.cause }

// ErrLabelOutOfRange indicates a label beyond the configured label count.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrLabelOutOfRange struct {
	Label int
	cause error
}

func (e *ErrLabelOutOfRange) Error() string {
	return fmt.Sprintf("label %d is out of range", e.Label)
}

func (e *ErrLabelOutOfRange) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var id *memory.ErrInvalidDimension
	if errors.As(err, &id) {
		return &ErrInvalidDimension{Expected: id.Expected, Actual: id.Actual, cause: err}
	}
	var il *memory.ErrInvalidLevel
	if errors.As(err, &il) {
		return &ErrInvalidLevel{Dimension: il.Dimension, Level: il.Level, Size: il.Size, cause: err}
	}
	var lr *bank.ErrLabelOutOfRange
	if errors.As(err, &lr) {
		return &ErrLabelOutOfRange{Label: lr.Label, cause: err}
	}
	if errors.Is(err, arbiter.ErrEmptyCandidateSet) {
		return fmt.Errorf("%w: %w", ErrEmptyCandidateSet, err)
	}

	return err
}
