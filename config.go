package assocmem

import (
	"errors"
	"fmt"

	"github.com/hupe1980/assocmem/arbiter"
)

// DefaultSizes are the memory sizes swept by default: 1, 2, 4, ..., 512.
var DefaultSizes = []int{1, 2, 4, 8, 16, 32, 64, 128, 256, 512}

// Config describes one experiment. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	// Domain is the feature dimension of every sample.
	Domain int

	// Sizes are the memory sizes evaluated by EvaluateSizes.
	Sizes []int

	// Labels is the number of distinct labels, 0..Labels-1.
	Labels int

	// LabelsPerGroup maps labels onto memories: group = label / LabelsPerGroup.
	LabelsPerGroup int

	// Tolerance is the number of unseen cells a probe may hit and still be
	// recognized. Negative values act as 0.
	Tolerance int

	// Mode selects how one group is chosen among several recognizing ones.
	Mode arbiter.Mode

	// TrainingPercent is the fraction of each fold used for training.
	TrainingPercent float64

	// FillingPercent is the fraction of the training part registered per
	// incremental fill stage.
	FillingPercent float64

	// FillSize is the memory size used by RunFill.
	FillSize int

	// Workers bounds the number of units evaluated concurrently.
	Workers int

	// Seed makes random arbitration reproducible.
	Seed uint64
}

// DefaultConfig returns the configuration of the reference experiments.
func DefaultConfig() Config {
	return Config{
		Domain:          640,
		Sizes:           append([]int(nil), DefaultSizes...),
		Labels:          10,
		LabelsPerGroup:  1,
		Tolerance:       0,
		Mode:            arbiter.Entropy,
		TrainingPercent: 0.8,
		FillingPercent:  0.1,
		FillSize:        64,
		Workers:         4,
		Seed:            1,
	}
}

// Groups returns ceil(Labels / LabelsPerGroup).
func (c Config) Groups() int {
	if c.LabelsPerGroup < 1 {
		return 0
	}
	return (c.Labels + c.LabelsPerGroup - 1) / c.LabelsPerGroup
}

// Validate reports every invalid field, joined, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error

	if c.Domain <= 0 {
		errs = append(errs, fmt.Errorf("domain must be positive, got %d", c.Domain))
	}
	if len(c.Sizes) == 0 {
		errs = append(errs, errors.New("at least one memory size is required"))
	}
	for _, s := range c.Sizes {
		if s <= 0 {
			errs = append(errs, fmt.Errorf("memory size must be positive, got %d", s))
		}
	}
	if c.Labels <= 0 {
		errs = append(errs, fmt.Errorf("labels must be positive, got %d", c.Labels))
	}
	if c.LabelsPerGroup < 1 {
		errs = append(errs, fmt.Errorf("labels per group must be at least 1, got %d", c.LabelsPerGroup))
	}
	if c.Mode != arbiter.Entropy && c.Mode != arbiter.Random {
		errs = append(errs, fmt.Errorf("unknown arbitration mode %v", c.Mode))
	}
	if c.TrainingPercent <= 0 || c.TrainingPercent >= 1 {
		errs = append(errs, fmt.Errorf("training percent must be in (0, 1), got %v", c.TrainingPercent))
	}
	if c.FillingPercent <= 0 || c.FillingPercent > 1 {
		errs = append(errs, fmt.Errorf("filling percent must be in (0, 1], got %v", c.FillingPercent))
	}
	if c.FillSize <= 0 {
		errs = append(errs, fmt.Errorf("fill size must be positive, got %d", c.FillSize))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
