package bank

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// Candidates is the set of groups that recognized a probe.
// Iteration is in ascending group order.
type Candidates struct {
	rb *roaring.Bitmap
}

// NewCandidates creates a set holding the given groups.
func NewCandidates(groups ...int) *Candidates {
	c := &Candidates{rb: roaring.New()}
	for _, g := range groups {
		c.Add(g)
	}
	return c
}

// Add inserts group g.
func (c *Candidates) Add(g int) {
	c.rb.Add(uint32(g))
}

// Contains reports whether g recognized the probe.
func (c *Candidates) Contains(g int) bool {
	if g < 0 {
		return false
	}
	return c.rb.Contains(uint32(g))
}

// Len returns the number of recognizing groups.
func (c *Candidates) Len() int {
	return int(c.rb.GetCardinality())
}

// IsEmpty reports whether no group recognized the probe.
func (c *Candidates) IsEmpty() bool {
	return c.rb.IsEmpty()
}

// Groups returns the groups in ascending order.
func (c *Candidates) Groups() []int {
	out := make([]int, 0, c.Len())
	for g := range c.All() {
		out = append(out, g)
	}
	return out
}

// All iterates the groups in ascending order.
func (c *Candidates) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		it := c.rb.Iterator()
		for it.HasNext() {
			if !yield(int(it.Next())) {
				return
			}
		}
	}
}
