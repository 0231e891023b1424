// Package bank holds a fixed arena of associative memories, one per label
// group, and routes training and query traffic to them.
package bank

import (
	"errors"
	"fmt"

	"github.com/hupe1980/assocmem/memory"
)

var (
	// ErrInvalidGroups is returned for a non-positive group count.
	ErrInvalidGroups = errors.New("bank needs at least one group")

	// ErrInvalidLabelsPerGroup is returned when labels per group is below 1.
	ErrInvalidLabelsPerGroup = errors.New("labels per group must be at least 1")
)

// ErrLabelOutOfRange indicates a label whose group lies outside the bank.
type ErrLabelOutOfRange struct {
	Label  int
	Group  int
	Groups int
}

func (e *ErrLabelOutOfRange) Error() string {
	return fmt.Sprintf("label %d maps to group %d, bank has %d groups", e.Label, e.Group, e.Groups)
}

// GroupOf maps a label to its group: floor(label / labelsPerGroup).
func GroupOf(label, labelsPerGroup int) (int, error) {
	if labelsPerGroup < 1 {
		return 0, ErrInvalidLabelsPerGroup
	}
	if label < 0 {
		return 0, &ErrLabelOutOfRange{Label: label, Group: -1}
	}
	return label / labelsPerGroup, nil
}

// GroupsFor returns how many groups cover labels [0, labels).
func GroupsFor(labels, labelsPerGroup int) (int, error) {
	if labelsPerGroup < 1 {
		return 0, ErrInvalidLabelsPerGroup
	}
	if labels <= 0 {
		return 0, ErrInvalidGroups
	}
	return (labels + labelsPerGroup - 1) / labelsPerGroup, nil
}

// Bank is an arena of memories indexed by contiguous group id.
// Like memory.Memory it is not safe for concurrent mutation.
type Bank struct {
	domain   int
	size     int
	memories []*memory.Memory
}

// New allocates groups empty memories of the given shape.
func New(groups, domain, size int) (*Bank, error) {
	if groups <= 0 {
		return nil, ErrInvalidGroups
	}

	b := &Bank{
		domain:   domain,
		size:     size,
		memories: make([]*memory.Memory, groups),
	}

	for g := range b.memories {
		m, err := memory.New(domain, size)
		if err != nil {
			return nil, err
		}
		b.memories[g] = m
	}

	return b, nil
}

// FromMemories builds a bank around existing memories, e.g. restored
// snapshots. All memories must share one shape.
func FromMemories(memories []*memory.Memory) (*Bank, error) {
	if len(memories) == 0 {
		return nil, ErrInvalidGroups
	}

	domain, size := memories[0].Domain(), memories[0].Size()
	for g, m := range memories {
		if m.Domain() != domain || m.Size() != size {
			return nil, fmt.Errorf("group %d has shape %dx%d, want %dx%d", g, m.Domain(), m.Size(), domain, size)
		}
	}

	return &Bank{
		domain:   domain,
		size:     size,
		memories: append([]*memory.Memory(nil), memories...),
	}, nil
}

// NewForLabels allocates enough groups to cover labels [0, labels).
func NewForLabels(labels, labelsPerGroup, domain, size int) (*Bank, error) {
	groups, err := GroupsFor(labels, labelsPerGroup)
	if err != nil {
		return nil, err
	}
	return New(groups, domain, size)
}

// FootprintBytes estimates the relation storage of a bank before it is built.
func FootprintBytes(groups, domain, size int) int64 {
	return int64(groups) * int64(domain) * int64(size) * 4
}

// Len returns the number of groups.
func (b *Bank) Len() int { return len(b.memories) }

// Domain returns the dimension count shared by all memories.
func (b *Bank) Domain() int { return b.domain }

// Size returns the level count shared by all memories.
func (b *Bank) Size() int { return b.size }

// Undefined returns the level marking "no answer".
func (b *Bank) Undefined() int { return b.size }

// Memory returns the memory of group g, or nil when g is out of range.
func (b *Bank) Memory(g int) *memory.Memory {
	if g < 0 || g >= len(b.memories) {
		return nil
	}
	return b.memories[g]
}

// FootprintBytes returns the relation storage held by the bank.
func (b *Bank) FootprintBytes() int64 {
	var n int64
	for _, m := range b.memories {
		n += m.FootprintBytes()
	}
	return n
}

// Register routes code to the group of label.
func (b *Bank) Register(label int, code []int, labelsPerGroup int) error {
	g, err := GroupOf(label, labelsPerGroup)
	if err != nil {
		return err
	}
	if g >= len(b.memories) {
		return &ErrLabelOutOfRange{Label: label, Group: g, Groups: len(b.memories)}
	}
	return b.memories[g].Register(code)
}

// RecognizingGroups returns every group whose memory recognizes code.
func (b *Bank) RecognizingGroups(code []int, tolerance int) (*Candidates, error) {
	c := NewCandidates()
	for g, m := range b.memories {
		ok, err := m.Recognize(code, tolerance)
		if err != nil {
			return nil, err
		}
		if ok {
			c.Add(g)
		}
	}
	return c, nil
}

// Recall asks every group for a recall and returns the recalled prototypes
// of the groups that recognized code.
func (b *Bank) Recall(code []int, tolerance int) (map[int][]int, *Candidates, error) {
	recalls := make(map[int][]int)
	c := NewCandidates()

	for g, m := range b.memories {
		v, ok, err := m.Recall(code, tolerance)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			recalls[g] = v
			c.Add(g)
		}
	}

	return recalls, c, nil
}

// Entropies returns the current entropy of every group, indexed by group.
func (b *Bank) Entropies() []float64 {
	out := make([]float64, len(b.memories))
	for g, m := range b.memories {
		out[g] = m.Entropy()
	}
	return out
}

// UndefinedVector returns a vector filled with the undefined level.
func (b *Bank) UndefinedVector() []int {
	v := make([]int, b.domain)
	for i := range v {
		v[i] = b.size
	}
	return v
}
