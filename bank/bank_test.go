package bank

import (
	"testing"

	"github.com/hupe1980/assocmem/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupOf_Partition(t *testing.T) {
	for lpg := 1; lpg <= 5; lpg++ {
		groups, err := GroupsFor(10, lpg)
		require.NoError(t, err)

		for label := 0; label < 10; label++ {
			g, err := GroupOf(label, lpg)
			require.NoError(t, err)
			assert.Equal(t, label/lpg, g)
			assert.Less(t, g, groups)

			// Exactly one group claims the label.
			claims := 0
			for cand := 0; cand < groups; cand++ {
				if label >= cand*lpg && label < (cand+1)*lpg {
					claims++
				}
			}
			assert.Equal(t, 1, claims)
		}
	}
}

func TestGroupOf_Invalid(t *testing.T) {
	_, err := GroupOf(3, 0)
	assert.ErrorIs(t, err, ErrInvalidLabelsPerGroup)

	_, err = GroupOf(-1, 1)
	var oor *ErrLabelOutOfRange
	assert.ErrorAs(t, err, &oor)

	_, err = GroupsFor(0, 1)
	assert.ErrorIs(t, err, ErrInvalidGroups)

	_, err = GroupsFor(10, 0)
	assert.ErrorIs(t, err, ErrInvalidLabelsPerGroup)
}

func TestNew(t *testing.T) {
	b, err := New(3, 4, 8)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 4, b.Domain())
	assert.Equal(t, 8, b.Size())
	assert.Equal(t, 8, b.Undefined())
	assert.Equal(t, FootprintBytes(3, 4, 8), b.FootprintBytes())
	assert.Nil(t, b.Memory(3))
	assert.Nil(t, b.Memory(-1))

	// Memories never alias each other.
	require.NoError(t, b.Memory(0).Register([]int{1, 1, 1, 1}))
	assert.Equal(t, uint64(0), b.Memory(1).Registrations())

	_, err = New(0, 4, 8)
	assert.ErrorIs(t, err, ErrInvalidGroups)

	_, err = New(2, 0, 8)
	assert.ErrorIs(t, err, memory.ErrInvalidShape)
}

func TestNewForLabels(t *testing.T) {
	b, err := NewForLabels(10, 3, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, b.Len())
}

func TestRegisterAndRecognize(t *testing.T) {
	b, err := New(3, 2, 4)
	require.NoError(t, err)

	require.NoError(t, b.Register(0, []int{0, 1}, 1))
	require.NoError(t, b.Register(2, []int{0, 1}, 1))
	require.NoError(t, b.Register(1, []int{3, 3}, 1))

	c, err := b.RecognizingGroups([]int{0, 1}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, c.Groups())
	assert.True(t, c.Contains(2))
	assert.False(t, c.Contains(1))
	assert.Equal(t, 2, c.Len())

	c, err = b.RecognizingGroups([]int{2, 2}, 0)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	c, err = b.RecognizingGroups([]int{3, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, c.Groups())
}

func TestRegister_Grouped(t *testing.T) {
	b, err := NewForLabels(4, 2, 1, 2)
	require.NoError(t, err)

	require.NoError(t, b.Register(3, []int{1}, 2))
	assert.Equal(t, uint64(1), b.Memory(1).Registrations())
	assert.Equal(t, uint64(0), b.Memory(0).Registrations())

	err = b.Register(4, []int{1}, 2)
	var oor *ErrLabelOutOfRange
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 2, oor.Group)

	var dim *memory.ErrInvalidDimension
	assert.ErrorAs(t, b.Register(0, []int{1, 1}, 2), &dim)
}

func TestRecall(t *testing.T) {
	b, err := New(2, 2, 4)
	require.NoError(t, err)
	require.NoError(t, b.Register(0, []int{1, 2}, 1))
	require.NoError(t, b.Register(0, []int{1, 3}, 1))
	require.NoError(t, b.Register(0, []int{1, 3}, 1))

	recalls, c, err := b.Recall([]int{1, 2}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, c.Groups())
	assert.Equal(t, map[int][]int{0: {1, 3}}, recalls)

	_, _, err = b.Recall([]int{9, 9}, 0)
	assert.Error(t, err)

	assert.Equal(t, []int{4, 4}, b.UndefinedVector())
}

func TestEntropies(t *testing.T) {
	b, err := New(2, 1, 2)
	require.NoError(t, err)
	require.NoError(t, b.Register(1, []int{0}, 1))
	require.NoError(t, b.Register(1, []int{1}, 1))

	assert.Equal(t, []float64{0, 1}, b.Entropies())
}

func TestCandidates(t *testing.T) {
	c := NewCandidates(5, 1, 3)
	assert.Equal(t, []int{1, 3, 5}, c.Groups())
	assert.False(t, c.Contains(-1))

	var seen []int
	for g := range c.All() {
		seen = append(seen, g)
		if g == 3 {
			break
		}
	}
	assert.Equal(t, []int{1, 3}, seen)
}

func TestFromMemories(t *testing.T) {
	a, err := memory.New(3, 4)
	require.NoError(t, err)
	require.NoError(t, a.Register([]int{1, 2, 3}))
	b, err := memory.New(3, 4)
	require.NoError(t, err)

	bk, err := FromMemories([]*memory.Memory{a, b})
	require.NoError(t, err)
	assert.Equal(t, 2, bk.Len())
	assert.Equal(t, 3, bk.Domain())
	assert.Equal(t, 4, bk.Size())
	assert.Same(t, a, bk.Memory(0))

	c, err := FromMemories(nil)
	assert.ErrorIs(t, err, ErrInvalidGroups)
	assert.Nil(t, c)

	odd, err := memory.New(3, 5)
	require.NoError(t, err)
	_, err = FromMemories([]*memory.Memory{a, odd})
	assert.Error(t, err)
}
