package assocmem

import (
	"fmt"
	"math"

	"github.com/hupe1980/assocmem/arbiter"
)

// Stat is a mean with its population standard deviation.
type Stat struct {
	Mean float64
	Std  float64
}

func meanStd(xs []float64) Stat {
	if len(xs) == 0 {
		return Stat{}
	}

	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}

	return Stat{Mean: mean, Std: math.Sqrt(sq / float64(len(xs)))}
}

func mean(xs []float64) float64 { return meanStd(xs).Mean }

// SizeSummary aggregates one memory size over every successful fold.
//
// Precision, Recall and Entropy are per-group figures: each fold contributes
// the mean and the standard deviation over its groups, and both are averaged
// across folds. OverallPrecision and OverallRecall come from the arbitration
// outcomes and are spread across folds. Precision and recall figures are
// percentages.
type SizeSummary struct {
	Size int

	Precision Stat
	Recall    Stat
	Entropy   Stat

	OverallPrecision Stat
	OverallRecall    Stat

	// Mean outcome counts per fold.
	NoResponse         float64
	NoCorrectCandidate float64
	CorrectNotChosen   float64
	CorrectChosen      float64

	// Responses is the mean number of recognizing groups per probe.
	Responses Stat
}

// Summary is the fold-level aggregation of a size sweep.
type Summary struct {
	// Folds is the number of folds that contributed.
	Folds int

	// Failed lists the indices of folds that carried an error.
	Failed []int

	Sizes []SizeSummary
}

// Summarize aggregates fold results position by position over Config.Sizes.
// Failed folds are skipped and listed in Summary.Failed.
func Summarize(results []FoldResult) (*Summary, error) {
	var (
		ok     []FoldResult
		failed []int
	)
	for _, fr := range results {
		if fr.Err != nil {
			failed = append(failed, fr.Fold)
			continue
		}
		ok = append(ok, fr)
	}
	if len(ok) == 0 {
		return nil, ErrNoResults
	}

	n := len(ok[0].Sizes)
	for _, fr := range ok[1:] {
		if len(fr.Sizes) != n {
			return nil, fmt.Errorf("fold %d has %d sizes, fold %d has %d", ok[0].Fold, n, fr.Fold, len(fr.Sizes))
		}
	}

	s := &Summary{Folds: len(ok), Failed: failed, Sizes: make([]SizeSummary, n)}

	for i := range n {
		var (
			precMean, precStd []float64
			recMean, recStd   []float64
			entMean, entStd   []float64
			allPrec, allRec   []float64
			responses         []float64
			outcomes          [arbiter.NumOutcomes][]float64
		)

		for _, fr := range ok {
			sr := fr.Sizes[i]

			p := percent(meanStd(sr.Precisions()))
			precMean, precStd = append(precMean, p.Mean), append(precStd, p.Std)

			rc := percent(meanStd(sr.Recalls()))
			recMean, recStd = append(recMean, rc.Mean), append(recStd, rc.Std)

			e := meanStd(sr.Entropies)
			entMean, entStd = append(entMean, e.Mean), append(entStd, e.Std)

			allPrec = append(allPrec, 100*sr.Behaviours.Precision())
			allRec = append(allRec, 100*sr.Behaviours.Recall())
			responses = append(responses, sr.Behaviours.MeanResponses())

			for o := range outcomes {
				outcomes[o] = append(outcomes[o], float64(sr.Behaviours.Counts[o]))
			}
		}

		s.Sizes[i] = SizeSummary{
			Size:               ok[0].Sizes[i].Size,
			Precision:          Stat{Mean: mean(precMean), Std: mean(precStd)},
			Recall:             Stat{Mean: mean(recMean), Std: mean(recStd)},
			Entropy:            Stat{Mean: mean(entMean), Std: mean(entStd)},
			OverallPrecision:   meanStd(allPrec),
			OverallRecall:      meanStd(allRec),
			NoResponse:         mean(outcomes[arbiter.NoResponse]),
			NoCorrectCandidate: mean(outcomes[arbiter.NoCorrectCandidate]),
			CorrectNotChosen:   mean(outcomes[arbiter.CorrectNotChosen]),
			CorrectChosen:      mean(outcomes[arbiter.CorrectChosen]),
			Responses:          meanStd(responses),
		}
	}

	return s, nil
}

func percent(s Stat) Stat { return Stat{Mean: 100 * s.Mean, Std: 100 * s.Std} }

// FillStageSummary aggregates one fill stage. Every figure pools the
// per-group values of all folds before taking mean and deviation.
// Precision and recall are fractions in [0, 1], unlike the size sweep.
type FillStageSummary struct {
	Stage     int
	Precision Stat
	Recall    Stat
	Entropy   Stat
}

// FillSummary is the fold-level aggregation of an incremental fill.
type FillSummary struct {
	Folds  int
	Failed []int
	Stages []FillStageSummary
}

// SummarizeFill aggregates fill results stage by stage. Folds may have a
// different number of stages; stage k pools whichever folds reached it.
func SummarizeFill(results []FillResult) (*FillSummary, error) {
	var (
		ok     []FillResult
		failed []int
		stages int
	)
	for _, fr := range results {
		if fr.Err != nil {
			failed = append(failed, fr.Fold)
			continue
		}
		ok = append(ok, fr)
		stages = max(stages, len(fr.Stages))
	}
	if len(ok) == 0 {
		return nil, ErrNoResults
	}

	s := &FillSummary{Folds: len(ok), Failed: failed, Stages: make([]FillStageSummary, stages)}

	for k := range stages {
		var prec, rec, ent []float64
		for _, fr := range ok {
			if k >= len(fr.Stages) {
				continue
			}
			st := fr.Stages[k]
			prec = append(prec, st.Precisions()...)
			rec = append(rec, st.RecallRates()...)
			ent = append(ent, st.Entropies...)
		}

		s.Stages[k] = FillStageSummary{
			Stage:     k,
			Precision: meanStd(prec),
			Recall:    meanStd(rec),
			Entropy:   meanStd(ent),
		}
	}

	return s, nil
}

// StageRecalls gathers the recalls of stage k across folds, in fold order.
func StageRecalls(results []FillResult, k int) []Recalled {
	var out []Recalled
	for _, fr := range results {
		if fr.Err != nil || k >= len(fr.Stages) {
			continue
		}
		out = append(out, fr.Stages[k].Recalls...)
	}
	return out
}
