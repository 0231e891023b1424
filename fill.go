package assocmem

import (
	"context"
	"fmt"

	"github.com/hupe1980/assocmem/bank"
	"github.com/hupe1980/assocmem/dataset"
	"github.com/hupe1980/assocmem/quantization"
	"github.com/sourcegraph/conc/pool"
)

// FillStage is the state of a bank after one incremental fill stage.
type FillStage struct {
	// Stage counts from 0.
	Stage int

	// Samples is the length of the training prefix registered at this stage.
	Samples int

	// Entropies holds each group's entropy after the stage.
	Entropies []float64

	// Groups holds each group's recognition confusion matrix.
	Groups []Confusion

	Behaviours Behaviours

	// Recalls holds the answer to every test probe, in test order.
	Recalls []Recalled
}

// Precisions returns the precision of every group.
func (s FillStage) Precisions() []float64 { return groupPrecisions(s.Groups) }

// RecallRates returns the recall of every group.
func (s FillStage) RecallRates() []float64 { return groupRecalls(s.Groups) }

// FillResult holds the incremental fill of one fold. Err is set when the
// fold failed; Stages is then empty.
type FillResult struct {
	Fold   int
	Size   int
	Range  quantization.Range
	Stages []FillStage

	// Bank is the bank after the last stage.
	Bank *bank.Bank

	Err error
}

// FillPlan returns the per-stage sample count and the number of stages for
// a training part of n samples: step = floor(n * fillingPercent) and
// stages = floor(n / step).
func FillPlan(n int, fillingPercent float64) (step, stages int) {
	step = int(float64(n) * fillingPercent)
	if step <= 0 {
		return 0, 0
	}
	return step, n / step
}

// FillFold fills a single bank of Config.FillSize with the training part of
// fold in equal stages. Stage k registers the whole training prefix
// [0, (k+1)*step) into the same bank, so a sample registered at stage j is
// counted once more at every later stage. After every stage each test probe
// is recalled and arbitrated.
//
// The test probes are the last n - floor(n*(1-TrainingPercent)) samples of
// the fold, which overlap the end of the training part.
func (r *Runner) FillFold(ctx context.Context, fold dataset.Fold) (res *FillResult, err error) {
	start := r.opts.now()
	log := r.logger.WithFold(fold.Index).WithSize(r.cfg.FillSize)
	defer func() {
		d := r.since(start)
		log.LogUnit(ctx, UnitFill, d, err)
		r.opts.metricsCollector.RecordUnit(UnitFill, d, err)
	}()

	if err := r.checkFold(fold); err != nil {
		return nil, translateError(err)
	}

	train, _ := fold.Split(r.cfg.TrainingPercent)
	test := fold.Slice(dataset.SplitIndex(fold.Len(), 1-r.cfg.TrainingPercent), fold.Len())
	step, stages := FillPlan(train.Len(), r.cfg.FillingPercent)
	if stages == 0 || test.Len() == 0 {
		return nil, fmt.Errorf("%w: fold %d has %d training and %d testing samples",
			ErrTooFewSamples, fold.Index, train.Len(), test.Len())
	}

	rng, err := quantization.FitRange(fold.Features)
	if err != nil {
		return nil, err
	}
	if rng.Degenerate() {
		log.LogDegenerate(ctx, rng.Min)
	}

	size := r.cfg.FillSize
	groups := r.cfg.Groups()

	release, err := r.acquire(ctx, bank.FootprintBytes(groups, r.cfg.Domain, size))
	if err != nil {
		return nil, err
	}
	defer release()

	log.LogUnitStarted(ctx, UnitFill)

	b, err := bank.New(groups, r.cfg.Domain, size)
	if err != nil {
		return nil, err
	}

	arb := r.arbiterFor(fold.Index, 0)
	trainCodes := quantizeAll(train.Features[:step*stages], size, rng)
	testCodes := quantizeAll(test.Features, size, rng)

	res = &FillResult{Fold: fold.Index, Size: size, Range: rng, Stages: make([]FillStage, 0, stages)}

	for k := 0; k < stages; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hi := (k + 1) * step
		if err := r.register(b, trainCodes[:hi], train.Labels[:hi]); err != nil {
			return nil, translateError(err)
		}

		entropies := b.Entropies()

		pr, err := r.probe(ctx, b, arb, entropies, testCodes, test.Labels, true)
		if err != nil {
			return nil, translateError(err)
		}

		log.WithStage(k).LogStage(ctx, hi, pr.behaviours.Responses, pr.behaviours.Probes)

		res.Stages = append(res.Stages, FillStage{
			Stage:      k,
			Samples:    hi,
			Entropies:  entropies,
			Groups:     pr.groups,
			Behaviours: pr.behaviours,
			Recalls:    pr.recalls,
		})
	}

	res.Bank = b
	return res, nil
}

// RunFill runs FillFold on every fold concurrently. The result at position
// i belongs to folds[i]; a failing fold only sets its own Err.
func (r *Runner) RunFill(ctx context.Context, folds []dataset.Fold) []FillResult {
	type indexed struct {
		pos int
		res FillResult
	}

	p := pool.NewWithResults[indexed]().WithMaxGoroutines(workers(r.cfg))

	for i, f := range folds {
		p.Go(func() indexed {
			if err := ctx.Err(); err != nil {
				return indexed{pos: i, res: FillResult{Fold: f.Index, Size: r.cfg.FillSize, Err: err}}
			}
			res, err := r.FillFold(ctx, f)
			if err != nil {
				return indexed{pos: i, res: FillResult{Fold: f.Index, Size: r.cfg.FillSize, Err: err}}
			}
			return indexed{pos: i, res: *res}
		})
	}

	out := make([]FillResult, len(folds))
	failed := 0
	for _, ir := range p.Wait() {
		out[ir.pos] = ir.res
		if ir.res.Err != nil {
			failed++
		}
	}

	r.logger.LogRunSummary(ctx, UnitFill, len(folds), failed)
	return out
}
