package assocmem

import (
	"context"

	"github.com/hupe1980/assocmem/arbiter"
	"github.com/hupe1980/assocmem/bank"
	"github.com/hupe1980/assocmem/quantization"
)

// Confusion is the recognition confusion matrix of one group, where a
// probe is positive for the group owning its label.
type Confusion struct {
	TP, FP, FN, TN int
}

func (c *Confusion) observe(owner, recognized bool) {
	switch {
	case owner && recognized:
		c.TP++
	case owner:
		c.FN++
	case recognized:
		c.FP++
	default:
		c.TN++
	}
}

// Precision returns TP / (TP + FP), or 0 when the group never answered.
func (c Confusion) Precision() float64 { return ratio(c.TP, c.TP+c.FP) }

// Recall returns TP / (TP + FN), or 0 when the group owned no probe.
func (c Confusion) Recall() float64 { return ratio(c.TP, c.TP+c.FN) }

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// Behaviours counts arbitration outcomes over a set of probes.
type Behaviours struct {
	Counts    [arbiter.NumOutcomes]int
	Probes    int
	Responses int
}

func (b *Behaviours) observe(o arbiter.Outcome, responses int) {
	b.Counts[o]++
	b.Probes++
	b.Responses += responses
}

// Count returns how many probes ended with outcome o.
func (b Behaviours) Count(o arbiter.Outcome) int { return b.Counts[o] }

// MeanResponses returns the mean number of recognizing groups per probe.
func (b Behaviours) MeanResponses() float64 { return ratio(b.Responses, b.Probes) }

// Precision returns correct choices over probes that got any answer.
func (b Behaviours) Precision() float64 {
	return ratio(b.Counts[arbiter.CorrectChosen], b.Probes-b.Counts[arbiter.NoResponse])
}

// Recall returns correct choices over all probes.
func (b Behaviours) Recall() float64 {
	return ratio(b.Counts[arbiter.CorrectChosen], b.Probes)
}

// Recalled is the answer given to one test probe: the recalled prototype of
// the chosen group, or the all-undefined vector when no group answered.
type Recalled struct {
	Label  int
	Group  int // -1 when no group answered
	Vector []int
}

// probeResult is what querying a bank with every test probe yields.
type probeResult struct {
	groups     []Confusion
	behaviours Behaviours
	recalls    []Recalled
}

// quantizeAll maps every row to levels of the given size.
func quantizeAll(rows [][]float32, size int, rng quantization.Range) [][]int {
	out := make([][]int, len(rows))
	for i, v := range rows {
		out[i] = quantization.Quantize(v, size, rng)
	}
	return out
}

func (r *Runner) truthGroup(b *bank.Bank, label int) (int, error) {
	g, err := bank.GroupOf(label, r.cfg.LabelsPerGroup)
	if err != nil {
		return 0, err
	}
	if g >= b.Len() {
		return 0, &bank.ErrLabelOutOfRange{Label: label, Group: g, Groups: b.Len()}
	}
	return g, nil
}

func (r *Runner) register(b *bank.Bank, codes [][]int, labels []int) error {
	start := r.opts.now()
	for i, code := range codes {
		if err := b.Register(labels[i], code, r.cfg.LabelsPerGroup); err != nil {
			return err
		}
	}
	r.opts.metricsCollector.RecordRegister(len(codes), r.since(start))
	return nil
}

// probe recognizes every test code against every group, fills the
// per-group confusion matrices and arbitrates. With withRecalls set the
// prototype of the chosen group is kept for each probe.
func (r *Runner) probe(ctx context.Context, b *bank.Bank, arb *arbiter.Arbiter, entropies []float64, codes [][]int, labels []int, withRecalls bool) (*probeResult, error) {
	start := r.opts.now()

	res := &probeResult{groups: make([]Confusion, b.Len())}
	if withRecalls {
		res.recalls = make([]Recalled, 0, len(codes))
	}

	for i, code := range codes {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		truth, err := r.truthGroup(b, labels[i])
		if err != nil {
			return nil, err
		}

		var (
			cands   *bank.Candidates
			recalls map[int][]int
		)
		if withRecalls {
			recalls, cands, err = b.Recall(code, r.cfg.Tolerance)
		} else {
			cands, err = b.RecognizingGroups(code, r.cfg.Tolerance)
		}
		if err != nil {
			return nil, err
		}

		for g := range res.groups {
			res.groups[g].observe(g == truth, cands.Contains(g))
		}

		outcome, chosen, err := arb.Classify(cands.Groups(), truth, entropies)
		if err != nil {
			return nil, err
		}
		res.behaviours.observe(outcome, cands.Len())

		if withRecalls {
			rec := Recalled{Label: labels[i], Group: chosen}
			if chosen < 0 {
				rec.Vector = b.UndefinedVector()
			} else {
				rec.Vector = recalls[chosen]
			}
			res.recalls = append(res.recalls, rec)
		}
	}

	r.opts.metricsCollector.RecordRecognize(res.behaviours.Probes, res.behaviours.Responses, r.since(start))
	return res, nil
}

func groupPrecisions(groups []Confusion) []float64 {
	out := make([]float64, len(groups))
	for g, c := range groups {
		out[g] = c.Precision()
	}
	return out
}

func groupRecalls(groups []Confusion) []float64 {
	out := make([]float64, len(groups))
	for g, c := range groups {
		out[g] = c.Recall()
	}
	return out
}
