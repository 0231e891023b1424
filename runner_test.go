package assocmem

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hupe1980/assocmem/arbiter"
	"github.com/hupe1980/assocmem/bank"
	"github.com/hupe1980/assocmem/dataset"
	"github.com/hupe1980/assocmem/memory"
	"github.com/hupe1980/assocmem/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoClassFold alternates label 0 (low values) and label 1 (high values).
func twoClassFold(index, n int) dataset.Fold {
	f := dataset.Fold{Index: index}
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			f.Features = append(f.Features, []float32{0, 0.1, 0, 0.1})
		} else {
			f.Features = append(f.Features, []float32{1, 0.9, 1, 0.9})
		}
		f.Labels = append(f.Labels, i%2)
	}
	return f
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Domain = 4
	cfg.Labels = 2
	cfg.Sizes = []int{4, 1, 2}
	cfg.TrainingPercent = 0.8
	cfg.FillingPercent = 0.25
	cfg.FillSize = 4
	cfg.Workers = 2
	return cfg
}

func newTestRunner(t *testing.T, cfg Config, opts ...Option) *Runner {
	t.Helper()
	r, err := NewRunner(cfg, opts...)
	require.NoError(t, err)
	return r
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Domain", func(c *Config) { c.Domain = 0 }},
		{"NoSizes", func(c *Config) { c.Sizes = nil }},
		{"BadSize", func(c *Config) { c.Sizes = []int{4, 0} }},
		{"Labels", func(c *Config) { c.Labels = 0 }},
		{"LabelsPerGroup", func(c *Config) { c.LabelsPerGroup = 0 }},
		{"Mode", func(c *Config) { c.Mode = arbiter.Mode(7) }},
		{"TrainingPercent", func(c *Config) { c.TrainingPercent = 1 }},
		{"FillingPercent", func(c *Config) { c.FillingPercent = 0 }},
		{"FillSize", func(c *Config) { c.FillSize = -1 }},
		{"Workers", func(c *Config) { c.Workers = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

			_, err := NewRunner(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfig_Groups(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10, cfg.Groups())

	cfg.LabelsPerGroup = 3
	assert.Equal(t, 4, cfg.Groups())

	cfg.LabelsPerGroup = 0
	assert.Equal(t, 0, cfg.Groups())
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	m, err := memory.New(3, 2)
	require.NoError(t, err)

	err = translateError(m.Register([]int{0, 1}))
	var id *ErrInvalidDimension
	require.ErrorAs(t, err, &id)
	assert.Equal(t, 3, id.Expected)
	assert.Equal(t, 2, id.Actual)
	var cause *memory.ErrInvalidDimension
	assert.ErrorAs(t, errors.Unwrap(err), &cause)

	err = translateError(m.Register([]int{0, 2, 1}))
	var il *ErrInvalidLevel
	require.ErrorAs(t, err, &il)
	assert.Equal(t, 1, il.Dimension)
	assert.Equal(t, 2, il.Level)

	b, err := bank.New(2, 3, 2)
	require.NoError(t, err)
	err = translateError(b.Register(5, []int{0, 0, 0}, 1))
	var lr *ErrLabelOutOfRange
	require.ErrorAs(t, err, &lr)
	assert.Equal(t, 5, lr.Label)

	_, err = arbiter.New(arbiter.Entropy).Choose(nil, nil)
	err = translateError(err)
	assert.ErrorIs(t, err, ErrEmptyCandidateSet)
	assert.ErrorIs(t, err, arbiter.ErrEmptyCandidateSet)

	plain := errors.New("plain")
	assert.Same(t, plain, translateError(plain))
}

func TestNewRunner(t *testing.T) {
	cfg := testConfig()
	r := newTestRunner(t, cfg, WithRunID("run-1"))

	assert.Equal(t, "run-1", r.RunID())
	assert.Equal(t, cfg.Sizes, r.Config().Sizes)
	assert.Equal(t, int64(2), r.Resources().Config().MaxWorkers)

	cfg.Sizes[0] = 99
	assert.Equal(t, 4, r.Config().Sizes[0])

	other := newTestRunner(t, testConfig())
	assert.NotEmpty(t, other.RunID())
	assert.NotEqual(t, other.RunID(), newTestRunner(t, testConfig()).RunID())
}

func TestEvaluateSizes(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	r := newTestRunner(t, testConfig(), WithMetricsCollector(metrics))

	res, err := r.EvaluateSizes(context.Background(), twoClassFold(3, 10))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Fold)
	require.Len(t, res.Sizes, 3)

	for i, size := range []int{4, 1, 2} {
		assert.Equal(t, size, res.Sizes[i].Size)
	}

	t.Run("SingleLevel", func(t *testing.T) {
		sr := res.Sizes[1]
		assert.Equal(t, []float64{0, 0}, sr.Entropies)

		b := sr.Behaviours
		assert.Equal(t, 2, b.Probes)
		assert.Equal(t, 4, b.Responses)
		assert.InDelta(t, 2.0, b.MeanResponses(), 1e-9)
		// Tied entropies resolve to group 0.
		assert.Equal(t, 1, b.Count(arbiter.CorrectChosen))
		assert.Equal(t, 1, b.Count(arbiter.CorrectNotChosen))
		assert.InDelta(t, 0.5, b.Precision(), 1e-9)
		assert.InDelta(t, 0.5, b.Recall(), 1e-9)

		assert.Equal(t, []float64{0.5, 0.5}, sr.Precisions())
		assert.Equal(t, []float64{1, 1}, sr.Recalls())
	})

	t.Run("Separable", func(t *testing.T) {
		for _, sr := range []SizeResult{res.Sizes[0], res.Sizes[2]} {
			b := sr.Behaviours
			assert.Equal(t, 2, b.Count(arbiter.CorrectChosen), "size %d", sr.Size)
			assert.InDelta(t, 1.0, b.MeanResponses(), 1e-9)
			assert.Equal(t, []float64{1, 1}, sr.Precisions())
			assert.Equal(t, []float64{1, 1}, sr.Recalls())
			assert.False(t, sr.Degenerate)
		}
	})

	stats := metrics.GetStats()
	assert.Equal(t, int64(3*8), stats.Registrations)
	assert.Equal(t, int64(3*2), stats.Probes)
	assert.Equal(t, int64(3), stats.Units)
	assert.Zero(t, stats.UnitErrors)
}

func TestEvaluateSizes_Degenerate(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	r := newTestRunner(t, testConfig(), WithLogger(logger))

	fold := twoClassFold(0, 10)
	for i := range fold.Features {
		fold.Features[i] = []float32{0.5, 0.5, 0.5, 0.5}
	}

	res, err := r.EvaluateSizes(context.Background(), fold)
	require.NoError(t, err)
	for _, sr := range res.Sizes {
		assert.True(t, sr.Degenerate)
		assert.Zero(t, sr.Behaviours.Count(arbiter.NoResponse))
	}
	assert.Contains(t, buf.String(), "degenerate quantization range")
}

func TestEvaluateSizes_Errors(t *testing.T) {
	r := newTestRunner(t, testConfig())
	ctx := context.Background()

	wide := twoClassFold(0, 10)
	wide.Features[0] = []float32{0, 0, 0, 0, 0}
	_, err := r.EvaluateSizes(ctx, wide)
	assert.Error(t, err)

	narrow := dataset.Fold{Features: [][]float32{{1, 2}, {3, 4}}, Labels: []int{0, 1}}
	_, err = r.EvaluateSizes(ctx, narrow)
	var id *ErrInvalidDimension
	require.ErrorAs(t, err, &id)
	assert.Equal(t, 4, id.Expected)

	labels := twoClassFold(0, 10)
	labels.Labels[3] = 2
	_, err = r.EvaluateSizes(ctx, labels)
	var lr *ErrLabelOutOfRange
	require.ErrorAs(t, err, &lr)
	assert.Equal(t, 2, lr.Label)

	_, err = r.EvaluateSizes(ctx, twoClassFold(0, 1))
	assert.ErrorIs(t, err, ErrTooFewSamples)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.EvaluateSizes(canceled, twoClassFold(0, 10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateSizes_MemoryLimit(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 16, MaxWorkers: 1})
	r := newTestRunner(t, testConfig(), WithResourceController(rc))

	_, err := r.EvaluateSizes(context.Background(), twoClassFold(0, 10))
	var limit *resource.ErrExceedsLimit
	assert.ErrorAs(t, err, &limit)
	assert.Zero(t, rc.MemoryUsage())
}

func TestRunFolds_IsolatesFailures(t *testing.T) {
	r := newTestRunner(t, testConfig())

	bad := dataset.Fold{Index: 1, Features: [][]float32{{1}}, Labels: []int{0}}
	folds := []dataset.Fold{twoClassFold(0, 10), bad, twoClassFold(2, 20)}

	results := r.RunFolds(context.Background(), folds)
	require.Len(t, results, 3)

	assert.Equal(t, 0, results[0].Fold)
	assert.NoError(t, results[0].Err)
	assert.Len(t, results[0].Sizes, 3)

	assert.Equal(t, 1, results[1].Fold)
	assert.Error(t, results[1].Err)
	assert.Empty(t, results[1].Sizes)

	assert.Equal(t, 2, results[2].Fold)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, 4, results[2].Sizes[1].Behaviours.Probes)
}

func TestFillPlan(t *testing.T) {
	tests := []struct {
		n       int
		percent float64
		step    int
		stages  int
	}{
		{8, 0.25, 2, 4},
		{10, 0.3, 3, 3},
		{100, 0.1, 10, 10},
		{3, 0.1, 0, 0},
	}

	for _, tt := range tests {
		step, stages := FillPlan(tt.n, tt.percent)
		assert.Equal(t, tt.step, step)
		assert.Equal(t, tt.stages, stages)
	}
}

func TestFillFold(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	r := newTestRunner(t, testConfig(), WithMetricsCollector(metrics))

	res, err := r.FillFold(context.Background(), twoClassFold(5, 10))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Fold)
	assert.Equal(t, 4, res.Size)
	require.Len(t, res.Stages, 4)

	for k, st := range res.Stages {
		assert.Equal(t, k, st.Stage)
		assert.Equal(t, 2*(k+1), st.Samples)
		assert.Equal(t, 9, st.Behaviours.Count(arbiter.CorrectChosen))
		assert.Equal(t, []float64{0, 0}, st.Entropies)

		// Probes are samples 1..9, so they start with label 1.
		require.Len(t, st.Recalls, 9)
		assert.Equal(t, Recalled{Label: 1, Group: 1, Vector: []int{3, 3, 3, 3}}, st.Recalls[0])
		assert.Equal(t, Recalled{Label: 0, Group: 0, Vector: []int{0, 0, 0, 0}}, st.Recalls[1])
	}

	// Every stage registers the whole prefix: 2 + 4 + 6 + 8.
	assert.Equal(t, int64(20), metrics.GetStats().Registrations)
	assert.Equal(t, uint64(10), res.Bank.Memory(0).Registrations())
	assert.Equal(t, uint64(10), res.Bank.Memory(1).Registrations())
}

func TestFillFold_AccumulatesPrefix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Domain = 1
	cfg.Labels = 1
	cfg.TrainingPercent = 0.8
	cfg.FillingPercent = 0.5
	cfg.FillSize = 2
	cfg.Workers = 1
	r := newTestRunner(t, cfg)

	fold := dataset.Fold{
		Features: [][]float32{{0}, {0}, {1}, {1}, {0}},
		Labels:   []int{0, 0, 0, 0, 0},
	}

	res, err := r.FillFold(context.Background(), fold)
	require.NoError(t, err)
	require.Len(t, res.Stages, 2)

	assert.Equal(t, 2, res.Stages[0].Samples)
	assert.Equal(t, []float64{0}, res.Stages[0].Entropies)

	// Stage 1 adds {0},{0},{1},{1} on top of the two codes from stage 0.
	assert.Equal(t, 4, res.Stages[1].Samples)
	require.Len(t, res.Stages[1].Entropies, 1)
	assert.InDelta(t, 0.9183, res.Stages[1].Entropies[0], 1e-4)
	assert.Equal(t, [][]uint32{{4, 2}}, res.Bank.Memory(0).Relation())
	assert.Equal(t, uint64(6), res.Bank.Memory(0).Registrations())
}

func TestFillFold_TestTailOverlapsTraining(t *testing.T) {
	r := newTestRunner(t, testConfig())

	fold := twoClassFold(0, 20)
	res, err := r.FillFold(context.Background(), fold)
	require.NoError(t, err)

	// Probes start at floor(20 * (1 - 0.8)) and run to the end of the fold,
	// well inside the 16 training samples.
	first := dataset.SplitIndex(20, 1-0.8)
	for _, st := range res.Stages {
		assert.Len(t, st.Recalls, 20-first)
		assert.Equal(t, 20-first, st.Behaviours.Probes)
	}
	assert.Less(t, first, 16)
}

func TestFillFold_NoResponseRecallsUndefined(t *testing.T) {
	cfg := testConfig()
	r := newTestRunner(t, cfg)

	// Sample 8 lies past the training part and inside the probes.
	fold := twoClassFold(0, 10)
	fold.Features[8] = []float32{0.5, 0.5, 0.5, 0.5}

	res, err := r.FillFold(context.Background(), fold)
	require.NoError(t, err)

	last := res.Stages[len(res.Stages)-1]
	first := dataset.SplitIndex(10, 1-cfg.TrainingPercent)
	assert.Equal(t, 1, last.Behaviours.Count(arbiter.NoResponse))
	assert.Equal(t, Recalled{Label: 0, Group: -1, Vector: []int{4, 4, 4, 4}}, last.Recalls[8-first])
}

func TestFillFold_TooFewSamples(t *testing.T) {
	cfg := testConfig()
	cfg.FillingPercent = 0.01
	r := newTestRunner(t, cfg)

	_, err := r.FillFold(context.Background(), twoClassFold(0, 10))
	assert.ErrorIs(t, err, ErrTooFewSamples)
}

func TestRunFill(t *testing.T) {
	r := newTestRunner(t, testConfig())

	bad := twoClassFold(1, 10)
	bad.Labels[0] = 9
	results := r.RunFill(context.Background(), []dataset.Fold{twoClassFold(0, 10), bad, twoClassFold(2, 10)})
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Len(t, results[0].Stages, 4)
	assert.Error(t, results[1].Err)
	assert.Equal(t, 1, results[1].Fold)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, 2, results[2].Fold)
}
