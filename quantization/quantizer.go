// Package quantization maps continuous feature vectors onto the discrete
// levels stored by associative memories.
package quantization

import (
	"errors"
	"math"
)

// ErrNoVectors is returned when a range is fitted over no data.
var ErrNoVectors = errors.New("no vectors provided for range fitting")

// Range holds the shared extremes used to quantize a fold.
type Range struct {
	Min float64
	Max float64
}

// Degenerate reports whether the range collapses to a single value.
// Quantizing over a degenerate range maps every value to level 0.
func (r Range) Degenerate() bool {
	return r.Max == r.Min
}

// FitRange finds the minimum and maximum value across all given matrices.
// Training and testing features of a fold are fitted together so that both
// are quantized on the same grid.
func FitRange(sets ...[][]float32) (Range, error) {
	r := Range{Min: math.Inf(1), Max: math.Inf(-1)}
	seen := false

	for _, vectors := range sets {
		for _, vec := range vectors {
			for _, val := range vec {
				v := float64(val)
				if v < r.Min {
					r.Min = v
				}
				if v > r.Max {
					r.Max = v
				}
				seen = true
			}
		}
	}

	if !seen {
		return Range{}, ErrNoVectors
	}

	return r, nil
}

// Quantize maps every coordinate of v onto [0, size-1]:
//
//	level = round((x - min) * (size - 1) / (max - min))
//
// Halves round to even. Values are not clamped: r is expected to be the true
// extreme of the data. A degenerate range yields all zeros.
func Quantize(v []float32, size int, r Range) []int {
	levels := make([]int, len(v))
	if r.Degenerate() || size <= 1 {
		return levels
	}

	scale := float64(size-1) / (r.Max - r.Min)
	for i, val := range v {
		levels[i] = int(math.RoundToEven((float64(val) - r.Min) * scale))
	}

	return levels
}

// Dequantize maps levels back onto the value grid of r. The undefined level
// (equal to size) becomes NaN so that downstream decoders can tell a missing
// recall from a real one.
func Dequantize(levels []int, size int, r Range) []float32 {
	values := make([]float32, len(levels))

	step := 0.0
	if size > 1 && !r.Degenerate() {
		step = (r.Max - r.Min) / float64(size-1)
	}

	for i, l := range levels {
		if l < 0 || l >= size {
			values[i] = float32(math.NaN())
			continue
		}
		values[i] = float32(r.Min + float64(l)*step)
	}

	return values
}

// LevelQuantizer bundles a resolution with a fitted range.
type LevelQuantizer struct {
	size int
	rng  Range
}

// NewLevelQuantizer creates a quantizer with the given number of levels.
func NewLevelQuantizer(size int, r Range) (*LevelQuantizer, error) {
	if size <= 0 {
		return nil, errors.New("quantizer size must be positive")
	}
	if r.Min > r.Max {
		return nil, errors.New("quantizer range min exceeds max")
	}

	return &LevelQuantizer{size: size, rng: r}, nil
}

// Fit creates a quantizer whose range spans all given matrices.
func Fit(size int, sets ...[][]float32) (*LevelQuantizer, error) {
	r, err := FitRange(sets...)
	if err != nil {
		return nil, err
	}

	return NewLevelQuantizer(size, r)
}

// Encode quantizes v. Values outside the fitted range are clamped first, so
// data that was not part of the fit still maps into [0, size-1].
func (q *LevelQuantizer) Encode(v []float32) []int {
	clamped := make([]float32, len(v))
	lo, hi := float32(q.rng.Min), float32(q.rng.Max)

	for i, val := range v {
		switch {
		case val < lo:
			clamped[i] = lo
		case val > hi:
			clamped[i] = hi
		default:
			clamped[i] = val
		}
	}

	return Quantize(clamped, q.size, q.rng)
}

// EncodeAll quantizes every row of vectors.
func (q *LevelQuantizer) EncodeAll(vectors [][]float32) [][]int {
	codes := make([][]int, len(vectors))
	for i, v := range vectors {
		codes[i] = q.Encode(v)
	}
	return codes
}

// Decode reconstructs feature values from levels.
func (q *LevelQuantizer) Decode(levels []int) []float32 {
	return Dequantize(levels, q.size, q.rng)
}

// Size returns the number of levels.
func (q *LevelQuantizer) Size() int {
	return q.size
}

// Range returns the fitted range.
func (q *LevelQuantizer) Range() Range {
	return q.rng
}

// Degenerate reports whether the fitted range carries no information.
func (q *LevelQuantizer) Degenerate() bool {
	return q.rng.Degenerate()
}
