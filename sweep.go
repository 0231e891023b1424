package assocmem

import (
	"context"
	"fmt"

	"github.com/hupe1980/assocmem/bank"
	"github.com/hupe1980/assocmem/dataset"
	"github.com/hupe1980/assocmem/quantization"
	"github.com/sourcegraph/conc/pool"
)

// SizeResult is the evaluation of one memory size on one fold.
type SizeResult struct {
	Size int

	// Range is the quantization range shared by training and testing.
	Range quantization.Range

	// Degenerate is set when every feature had the same value; all codes
	// are then 0 and the result carries no information.
	Degenerate bool

	// Entropies holds each group's entropy after registration.
	Entropies []float64

	// Groups holds each group's recognition confusion matrix.
	Groups []Confusion

	Behaviours Behaviours
}

// Precisions returns the precision of every group.
func (s SizeResult) Precisions() []float64 { return groupPrecisions(s.Groups) }

// Recalls returns the recall of every group.
func (s SizeResult) Recalls() []float64 { return groupRecalls(s.Groups) }

// FoldResult holds the size sweep of one fold. Err is set when the fold
// failed; Sizes is then empty.
type FoldResult struct {
	Fold  int
	Sizes []SizeResult
	Err   error
}

func (r *Runner) checkFold(f dataset.Fold) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.Domain() != r.cfg.Domain {
		return &ErrInvalidDimension{Expected: r.cfg.Domain, Actual: f.Domain()}
	}
	if m := f.MaxLabel(); m >= r.cfg.Labels {
		return &ErrLabelOutOfRange{Label: m}
	}
	return nil
}

// EvaluateSizes runs the size sweep on one fold: the fold is split by
// TrainingPercent, quantized once per size with the range of the whole fold,
// and every size is evaluated in its own bank. Sizes are evaluated
// concurrently; the first failure cancels the remaining sizes.
func (r *Runner) EvaluateSizes(ctx context.Context, fold dataset.Fold) (*FoldResult, error) {
	if err := r.checkFold(fold); err != nil {
		return nil, translateError(err)
	}

	train, test := fold.Split(r.cfg.TrainingPercent)
	if train.Len() == 0 || test.Len() == 0 {
		return nil, fmt.Errorf("%w: fold %d splits into %d training and %d testing samples",
			ErrTooFewSamples, fold.Index, train.Len(), test.Len())
	}

	rng, err := quantization.FitRange(train.Features, test.Features)
	if err != nil {
		return nil, err
	}

	log := r.logger.WithFold(fold.Index)
	if rng.Degenerate() {
		log.LogDegenerate(ctx, rng.Min)
	}

	type indexed struct {
		pos int
		res SizeResult
	}

	p := pool.NewWithResults[indexed]().
		WithMaxGoroutines(workers(r.cfg)).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for i, size := range r.cfg.Sizes {
		p.Go(func(ctx context.Context) (indexed, error) {
			res, err := r.evaluateSize(ctx, log.WithSize(size), fold.Index, i, size, rng, train, test)
			return indexed{pos: i, res: res}, err
		})
	}

	done, err := p.Wait()
	if err != nil {
		return nil, translateError(err)
	}

	sizes := make([]SizeResult, len(r.cfg.Sizes))
	for _, ir := range done {
		sizes[ir.pos] = ir.res
	}

	return &FoldResult{Fold: fold.Index, Sizes: sizes}, nil
}

func (r *Runner) evaluateSize(ctx context.Context, log *Logger, fold, idx, size int, rng quantization.Range, train, test dataset.Fold) (res SizeResult, err error) {
	start := r.opts.now()
	defer func() {
		d := r.since(start)
		log.LogUnit(ctx, UnitSize, d, err)
		r.opts.metricsCollector.RecordUnit(UnitSize, d, err)
	}()

	groups := r.cfg.Groups()
	release, err := r.acquire(ctx, bank.FootprintBytes(groups, r.cfg.Domain, size))
	if err != nil {
		return SizeResult{}, err
	}
	defer release()

	log.LogUnitStarted(ctx, UnitSize)

	b, err := bank.New(groups, r.cfg.Domain, size)
	if err != nil {
		return SizeResult{}, err
	}

	if err := r.register(b, quantizeAll(train.Features, size, rng), train.Labels); err != nil {
		return SizeResult{}, err
	}

	entropies := b.Entropies()

	pr, err := r.probe(ctx, b, r.arbiterFor(fold, idx), entropies, quantizeAll(test.Features, size, rng), test.Labels, false)
	if err != nil {
		return SizeResult{}, err
	}

	return SizeResult{
		Size:       size,
		Range:      rng,
		Degenerate: rng.Degenerate(),
		Entropies:  entropies,
		Groups:     pr.groups,
		Behaviours: pr.behaviours,
	}, nil
}

// RunFolds runs EvaluateSizes on every fold concurrently. The result at
// position i belongs to folds[i]; a failing fold only sets its own Err.
func (r *Runner) RunFolds(ctx context.Context, folds []dataset.Fold) []FoldResult {
	type indexed struct {
		pos int
		res FoldResult
	}

	p := pool.NewWithResults[indexed]().WithMaxGoroutines(workers(r.cfg))

	for i, f := range folds {
		p.Go(func() indexed {
			start := r.opts.now()
			log := r.logger.WithFold(f.Index)

			res := FoldResult{Fold: f.Index}
			if err := ctx.Err(); err != nil {
				res.Err = err
			} else if fr, err := r.EvaluateSizes(ctx, f); err != nil {
				res.Err = err
			} else {
				res.Sizes = fr.Sizes
			}

			d := r.since(start)
			log.LogUnit(ctx, UnitFold, d, res.Err)
			r.opts.metricsCollector.RecordUnit(UnitFold, d, res.Err)
			return indexed{pos: i, res: res}
		})
	}

	out := make([]FoldResult, len(folds))
	failed := 0
	for _, ir := range p.Wait() {
		out[ir.pos] = ir.res
		if ir.res.Err != nil {
			failed++
		}
	}

	r.logger.LogRunSummary(ctx, UnitFold, len(folds), failed)
	return out
}
