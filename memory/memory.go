package memory

import (
	"math"
)

// Memory is a relational associative memory over `domain` dimensions with
// `size` levels each. Its relation counts how often each (dimension, level)
// cell was seen during registration.
//
// A Memory is not safe for concurrent mutation. Concurrent readers are fine
// as long as nobody registers.
type Memory struct {
	domain int
	size   int

	// relation is the domain x size count matrix in row-major order.
	relation []uint32

	registrations uint64
}

// New creates an empty memory.
func New(domain, size int) (*Memory, error) {
	if domain <= 0 || size <= 0 {
		return nil, ErrInvalidShape
	}

	return &Memory{
		domain:   domain,
		size:     size,
		relation: make([]uint32, domain*size),
	}, nil
}

// Domain returns the number of dimensions.
func (m *Memory) Domain() int { return m.domain }

// Size returns the number of levels per dimension.
func (m *Memory) Size() int { return m.size }

// Undefined returns the sentinel level marking "no answer" in recalls.
func (m *Memory) Undefined() int { return m.size }

// Registrations returns how many vectors were registered.
func (m *Memory) Registrations() uint64 { return m.registrations }

// FootprintBytes returns the bytes held by the relation.
func (m *Memory) FootprintBytes() int64 {
	return int64(len(m.relation)) * 4
}

func (m *Memory) row(d int) []uint32 {
	return m.relation[d*m.size : (d+1)*m.size]
}

// validate checks the whole vector before any cell is touched.
func (m *Memory) validate(code []int) error {
	if len(code) != m.domain {
		return &ErrInvalidDimension{Expected: m.domain, Actual: len(code)}
	}
	for d, v := range code {
		if v < 0 || v >= m.size {
			return &ErrInvalidLevel{Dimension: d, Level: v, Size: m.size}
		}
	}
	return nil
}

// Register adds code to the relation.
func (m *Memory) Register(code []int) error {
	if err := m.validate(code); err != nil {
		return err
	}

	for d, v := range code {
		m.relation[d*m.size+v]++
	}
	m.registrations++

	return nil
}

// Recognize reports whether at most tolerance coordinates of code fall on
// cells that were never registered. Negative tolerances count as zero.
func (m *Memory) Recognize(code []int, tolerance int) (bool, error) {
	if err := m.validate(code); err != nil {
		return false, err
	}

	return m.recognize(code, tolerance), nil
}

func (m *Memory) recognize(code []int, tolerance int) bool {
	if tolerance < 0 {
		tolerance = 0
	}

	misses := 0
	for d, v := range code {
		if m.relation[d*m.size+v] == 0 {
			misses++
			if misses > tolerance {
				return false
			}
		}
	}

	return true
}

// Recall returns the memory's prototype when code is recognized, and a
// vector filled with Undefined otherwise.
//
// The prototype does not echo the probe: each coordinate is the most
// frequent level of its dimension, with ties going to the lower level.
func (m *Memory) Recall(code []int, tolerance int) ([]int, bool, error) {
	if err := m.validate(code); err != nil {
		return nil, false, err
	}

	if !m.recognize(code, tolerance) {
		return m.undefinedVector(), false, nil
	}

	return m.Prototype(), true, nil
}

// Prototype returns the argmax level of every dimension. Dimensions without
// any registration yield level 0.
func (m *Memory) Prototype() []int {
	proto := make([]int, m.domain)

	for d := 0; d < m.domain; d++ {
		best := 0
		var bestCount uint32
		for v, c := range m.row(d) {
			if c > bestCount {
				best, bestCount = v, c
			}
		}
		proto[d] = best
	}

	return proto
}

func (m *Memory) undefinedVector() []int {
	v := make([]int, m.domain)
	for i := range v {
		v[i] = m.size
	}
	return v
}

// IsUndefined reports whether every coordinate of v is the undefined level.
// An empty vector is not undefined.
func (m *Memory) IsUndefined(v []int) bool {
	if len(v) == 0 {
		return false
	}
	for _, x := range v {
		if x != m.size {
			return false
		}
	}
	return true
}

// Entropy returns the mean Shannon entropy, in bits, of the per-dimension
// level distributions. Dimensions with no registrations contribute 0.
// The result lies in [0, log2(size)].
func (m *Memory) Entropy() float64 {
	total := 0.0

	for d := 0; d < m.domain; d++ {
		total += rowEntropy(m.row(d))
	}

	return total / float64(m.domain)
}

func rowEntropy(row []uint32) float64 {
	var n uint64
	for _, c := range row {
		n += uint64(c)
	}
	if n == 0 {
		return 0
	}

	h := 0.0
	for _, c := range row {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(n)
		h -= p * math.Log2(p)
	}

	return h
}

// Count returns the number of registrations that placed dimension d on
// level v.
func (m *Memory) Count(d, v int) uint32 {
	if d < 0 || d >= m.domain || v < 0 || v >= m.size {
		return 0
	}
	return m.relation[d*m.size+v]
}

// Relation returns a copy of the count matrix, one row per dimension.
func (m *Memory) Relation() [][]uint32 {
	out := make([][]uint32, m.domain)
	for d := range out {
		out[d] = append([]uint32(nil), m.row(d)...)
	}
	return out
}

// Clone returns an independent copy sharing no storage with m.
func (m *Memory) Clone() *Memory {
	return &Memory{
		domain:        m.domain,
		size:          m.size,
		relation:      append([]uint32(nil), m.relation...),
		registrations: m.registrations,
	}
}

// Reset clears every registration.
func (m *Memory) Reset() {
	clear(m.relation)
	m.registrations = 0
}
