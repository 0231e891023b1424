package resource

import "fmt"

// ErrExceedsLimit indicates a reservation that can never be satisfied.
type ErrExceedsLimit struct {
	Requested int64
	Limit     int64
}

func (e *ErrExceedsLimit) Error() string {
	return fmt.Sprintf("memory reservation of %d bytes exceeds limit of %d bytes", e.Requested, e.Limit)
}
