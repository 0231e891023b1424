package arbiter

import "fmt"

// Outcome classifies how a probe was answered.
type Outcome int

const (
	// NoResponse: no group recognized the probe.
	NoResponse Outcome = iota
	// NoCorrectCandidate: some groups answered, the true one did not.
	NoCorrectCandidate
	// CorrectNotChosen: the true group answered but lost arbitration.
	CorrectNotChosen
	// CorrectChosen: the true group answered and won.
	CorrectChosen
)

// NumOutcomes is the number of Outcome values.
const NumOutcomes = 4

func (o Outcome) String() string {
	switch o {
	case NoResponse:
		return "no-response"
	case NoCorrectCandidate:
		return "no-correct-candidate"
	case CorrectNotChosen:
		return "correct-candidate-not-chosen"
	case CorrectChosen:
		return "correct-chosen"
	default:
		return fmt.Sprintf("arbiter.Outcome(%d)", int(o))
	}
}

// Classify arbitrates candidates for a probe whose true group is truth.
// chosen is the arbitrated group, or -1 for NoResponse. Any non-empty set is
// arbitrated, so chosen is meaningful for NoCorrectCandidate too (the group
// whose recall would be reported).
func (a *Arbiter) Classify(candidates []int, truth int, entropies []float64) (Outcome, int, error) {
	if len(candidates) == 0 {
		return NoResponse, -1, nil
	}

	chosen, err := a.Choose(candidates, entropies)
	if err != nil {
		return NoResponse, -1, err
	}

	switch {
	case chosen == truth:
		return CorrectChosen, chosen, nil
	case contains(candidates, truth):
		return CorrectNotChosen, chosen, nil
	default:
		return NoCorrectCandidate, chosen, nil
	}
}

func contains(candidates []int, g int) bool {
	for _, c := range candidates {
		if c == g {
			return true
		}
	}
	return false
}
