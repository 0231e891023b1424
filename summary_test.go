package assocmem

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/assocmem/arbiter"
	"github.com/hupe1980/assocmem/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanStd(t *testing.T) {
	assert.Equal(t, Stat{}, meanStd(nil))

	s := meanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, s.Mean, 1e-12)
	assert.InDelta(t, 2.0, s.Std, 1e-12)

	s = meanStd([]float64{3})
	assert.InDelta(t, 3.0, s.Mean, 1e-12)
	assert.Zero(t, s.Std)
}

func sizeResult(size int, groups []Confusion, entropies []float64, counts [arbiter.NumOutcomes]int, responses int) SizeResult {
	probes := 0
	for _, c := range counts {
		probes += c
	}
	return SizeResult{
		Size:       size,
		Entropies:  entropies,
		Groups:     groups,
		Behaviours: Behaviours{Counts: counts, Probes: probes, Responses: responses},
	}
}

func TestSummarize(t *testing.T) {
	results := []FoldResult{
		{
			Fold: 0,
			Sizes: []SizeResult{
				sizeResult(2,
					[]Confusion{{TP: 1, FP: 1}, {TP: 1, FN: 1}},
					[]float64{1, 0},
					[arbiter.NumOutcomes]int{1, 0, 1, 2}, 6),
			},
		},
		{Fold: 1, Err: errors.New("boom")},
		{
			Fold: 2,
			Sizes: []SizeResult{
				sizeResult(2,
					[]Confusion{{TP: 1}, {TP: 1}},
					[]float64{0.5, 0.5},
					[arbiter.NumOutcomes]int{0, 0, 0, 4}, 4),
			},
		},
	}

	s, err := Summarize(results)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Folds)
	assert.Equal(t, []int{1}, s.Failed)
	require.Len(t, s.Sizes, 1)

	sz := s.Sizes[0]
	assert.Equal(t, 2, sz.Size)

	// Fold 0 precisions {0.5, 1}, fold 2 {1, 1}.
	assert.InDelta(t, 87.5, sz.Precision.Mean, 1e-9)
	assert.InDelta(t, 12.5, sz.Precision.Std, 1e-9)
	// Fold 0 recalls {1, 0.5}, fold 2 {1, 1}.
	assert.InDelta(t, 87.5, sz.Recall.Mean, 1e-9)
	assert.InDelta(t, 0.5, sz.Entropy.Mean, 1e-9)
	assert.InDelta(t, 0.25, sz.Entropy.Std, 1e-9)

	// Overall precision: fold 0 is 2/3, fold 2 is 1.
	assert.InDelta(t, 100*(2.0/3+1)/2, sz.OverallPrecision.Mean, 1e-9)
	assert.InDelta(t, 75.0, sz.OverallRecall.Mean, 1e-9)
	assert.InDelta(t, 25.0, sz.OverallRecall.Std, 1e-9)

	assert.InDelta(t, 0.5, sz.NoResponse, 1e-9)
	assert.Zero(t, sz.NoCorrectCandidate)
	assert.InDelta(t, 0.5, sz.CorrectNotChosen, 1e-9)
	assert.InDelta(t, 3.0, sz.CorrectChosen, 1e-9)
	assert.InDelta(t, 1.25, sz.Responses.Mean, 1e-9)
}

func TestSummarize_Errors(t *testing.T) {
	_, err := Summarize(nil)
	assert.ErrorIs(t, err, ErrNoResults)

	_, err = Summarize([]FoldResult{{Fold: 0, Err: errors.New("x")}})
	assert.ErrorIs(t, err, ErrNoResults)

	_, err = Summarize([]FoldResult{
		{Fold: 0, Sizes: make([]SizeResult, 2)},
		{Fold: 1, Sizes: make([]SizeResult, 3)},
	})
	assert.Error(t, err)
}

func TestSummarizeFill(t *testing.T) {
	r := newTestRunner(t, testConfig())
	folds := []dataset.Fold{twoClassFold(0, 10), twoClassFold(1, 10)}
	results := r.RunFill(context.Background(), folds)

	s, err := SummarizeFill(results)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Folds)
	assert.Empty(t, s.Failed)
	require.Len(t, s.Stages, 4)

	for k, st := range s.Stages {
		assert.Equal(t, k, st.Stage)
		// Fill figures stay fractions.
		assert.InDelta(t, 1.0, st.Precision.Mean, 1e-9)
		assert.Zero(t, st.Precision.Std)
		assert.InDelta(t, 1.0, st.Recall.Mean, 1e-9)
		assert.Zero(t, st.Entropy.Mean)
	}

	recalls := StageRecalls(results, 2)
	require.Len(t, recalls, 18)
	assert.Equal(t, []int{1, 0, 1, 0}, []int{recalls[0].Label, recalls[1].Label, recalls[9].Label, recalls[10].Label})
	assert.Empty(t, StageRecalls(results, 9))

	_, err = SummarizeFill([]FillResult{{Err: errors.New("x")}})
	assert.ErrorIs(t, err, ErrNoResults)
}
