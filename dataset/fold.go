// Package dataset loads per-fold feature matrices and labels and splits
// them into training and testing parts.
package dataset

import (
	"errors"
	"fmt"
)

// ErrEmptyFold is returned when a fold holds no samples.
var ErrEmptyFold = errors.New("fold has no samples")

// Fold is one cross-validation partition: a feature vector and a label per
// sample, in file order.
type Fold struct {
	Index    int
	Features [][]float32
	Labels   []int
}

// Len returns the number of samples.
func (f Fold) Len() int { return len(f.Features) }

// Domain returns the feature dimension, or 0 for an empty fold.
func (f Fold) Domain() int {
	if len(f.Features) == 0 {
		return 0
	}
	return len(f.Features[0])
}

// Validate checks that features are rectangular, one label per row, and
// labels are non-negative.
func (f Fold) Validate() error {
	if len(f.Features) == 0 {
		return ErrEmptyFold
	}
	if len(f.Labels) != len(f.Features) {
		return fmt.Errorf("fold %d: %d feature rows but %d labels", f.Index, len(f.Features), len(f.Labels))
	}
	domain := len(f.Features[0])
	for i, row := range f.Features {
		if len(row) != domain {
			return fmt.Errorf("fold %d: row %d has %d features, want %d", f.Index, i, len(row), domain)
		}
	}
	for i, l := range f.Labels {
		if l < 0 {
			return fmt.Errorf("fold %d: sample %d has negative label %d", f.Index, i, l)
		}
	}
	return nil
}

// Slice returns samples [lo, hi) sharing storage with f.
func (f Fold) Slice(lo, hi int) Fold {
	lo = max(0, min(lo, f.Len()))
	hi = max(lo, min(hi, f.Len()))
	return Fold{
		Index:    f.Index,
		Features: f.Features[lo:hi:hi],
		Labels:   f.Labels[lo:hi:hi],
	}
}

// Split cuts the fold at floor(len * fraction): the first part trains, the
// rest tests.
func (f Fold) Split(fraction float64) (train, test Fold) {
	j := SplitIndex(f.Len(), fraction)
	return f.Slice(0, j), f.Slice(j, f.Len())
}

// SplitIndex returns floor(n * fraction) clamped to [0, n].
func SplitIndex(n int, fraction float64) int {
	j := int(float64(n) * fraction)
	return max(0, min(j, n))
}

// MaxLabel returns the largest label, or -1 for an empty fold.
func (f Fold) MaxLabel() int {
	m := -1
	for _, l := range f.Labels {
		m = max(m, l)
	}
	return m
}
