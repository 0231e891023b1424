// Package arbiter selects one memory when several recognize the same probe.
package arbiter

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// ErrEmptyCandidateSet is returned by Choose for an empty candidate set.
// Callers classify that case as "no response" before arbitrating.
var ErrEmptyCandidateSet = errors.New("arbiter: empty candidate set")

// Mode selects the arbitration policy.
type Mode int

const (
	// Entropy picks the candidate with the lowest entropy, ties going to the
	// lowest group index. It is the default.
	Entropy Mode = iota
	// Random picks uniformly among the candidates.
	Random
)

func (m Mode) String() string {
	switch m {
	case Entropy:
		return "entropy"
	case Random:
		return "random"
	default:
		return fmt.Sprintf("arbiter.Mode(%d)", int(m))
	}
}

// ParseMode resolves "entropy" or "random".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "entropy":
		return Entropy, nil
	case "random":
		return Random, nil
	default:
		return Entropy, fmt.Errorf("unknown arbitration mode %q", s)
	}
}

// Arbiter chooses among recognizing groups. An Arbiter owns its random
// source and must not be shared between goroutines.
type Arbiter struct {
	mode Mode
	rnd  *rand.Rand
}

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithSeed seeds the random source for reproducible random choices.
func WithSeed(seed uint64) Option {
	return func(a *Arbiter) {
		a.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand sets the random source.
func WithRand(r *rand.Rand) Option {
	return func(a *Arbiter) {
		if r != nil {
			a.rnd = r
		}
	}
}

// New creates an Arbiter.
func New(mode Mode, optFns ...Option) *Arbiter {
	a := &Arbiter{mode: mode}
	for _, fn := range optFns {
		fn(a)
	}
	if a.rnd == nil {
		a.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return a
}

// Mode returns the configured policy.
func (a *Arbiter) Mode() Mode { return a.mode }

// Choose returns one group out of candidates. Without entropies (nil) the
// choice is random regardless of mode.
func (a *Arbiter) Choose(candidates []int, entropies []float64) (int, error) {
	if len(candidates) == 0 {
		return 0, ErrEmptyCandidateSet
	}

	if a.mode == Random || entropies == nil {
		return candidates[a.rnd.IntN(len(candidates))], nil
	}

	return LowestEntropy(candidates, entropies)
}

// LowestEntropy returns the candidate with the lowest entropy. Equal
// entropies go to the lowest group index, whatever the candidate order.
func LowestEntropy(candidates []int, entropies []float64) (int, error) {
	if len(candidates) == 0 {
		return 0, ErrEmptyCandidateSet
	}

	best := -1
	for _, g := range candidates {
		if g < 0 || g >= len(entropies) {
			return 0, fmt.Errorf("arbiter: candidate %d has no entropy (%d known)", g, len(entropies))
		}
		if best < 0 || entropies[g] < entropies[best] || (entropies[g] == entropies[best] && g < best) {
			best = g
		}
	}

	return best, nil
}
