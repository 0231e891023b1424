package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testFold(n int) Fold {
	f := Fold{Index: 1}
	for i := 0; i < n; i++ {
		f.Features = append(f.Features, []float32{float32(i), float32(-i)})
		f.Labels = append(f.Labels, i%3)
	}
	return f
}

func TestFold_Split(t *testing.T) {
	f := testFold(10)

	train, test := f.Split(0.7)
	assert.Equal(t, 7, train.Len())
	assert.Equal(t, 3, test.Len())
	assert.Equal(t, []float32{7, -7}, test.Features[0])
	assert.Equal(t, 1, test.Index)

	// Appending to a part never clobbers its sibling.
	train.Features = append(train.Features, []float32{99, 99})
	assert.Equal(t, []float32{7, -7}, test.Features[0])

	train, test = f.Split(0)
	assert.Equal(t, 0, train.Len())
	assert.Equal(t, 10, test.Len())

	train, test = f.Split(1.5)
	assert.Equal(t, 10, train.Len())
	assert.Equal(t, 0, test.Len())
}

func TestFold_Slice(t *testing.T) {
	f := testFold(5)

	s := f.Slice(1, 3)
	assert.Equal(t, []int{1, 2}, s.Labels)

	assert.Equal(t, 0, f.Slice(4, 2).Len())
	assert.Equal(t, 2, f.Slice(3, 100).Len())
}

func TestFold_Validate(t *testing.T) {
	assert.NoError(t, testFold(4).Validate())
	assert.ErrorIs(t, Fold{}.Validate(), ErrEmptyFold)

	f := testFold(3)
	f.Labels = f.Labels[:2]
	assert.Error(t, f.Validate())

	f = testFold(3)
	f.Features[1] = []float32{1}
	assert.Error(t, f.Validate())

	f = testFold(3)
	f.Labels[0] = -1
	assert.Error(t, f.Validate())
}

func TestFold_Accessors(t *testing.T) {
	f := testFold(4)
	assert.Equal(t, 2, f.Domain())
	assert.Equal(t, 2, f.MaxLabel())
	assert.Equal(t, 0, Fold{}.Domain())
	assert.Equal(t, -1, Fold{}.MaxLabel())
	assert.Equal(t, "memories-007.csv", FileName("memories", 7, ".csv"))
}
