package assocmem

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/assocmem/arbiter"
	"github.com/hupe1980/assocmem/resource"
)

// Runner executes experiments described by a Config. It is safe for
// concurrent use; every unit owns its bank and arbiter.
type Runner struct {
	cfg       Config
	opts      options
	runID     string
	logger    *Logger
	resources *resource.Controller
}

// NewRunner validates cfg and creates a Runner.
func NewRunner(cfg Config, optFns ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Sizes = append([]int(nil), cfg.Sizes...)

	o := applyOptions(optFns)

	runID := o.runID
	if runID == "" {
		runID = uuid.NewString()
	}

	rc := o.resources
	if rc == nil {
		rc = resource.NewController(resource.Config{MaxWorkers: int64(workers(cfg))})
	}

	return &Runner{
		cfg:       cfg,
		opts:      o,
		runID:     runID,
		logger:    o.logger.WithRunID(runID),
		resources: rc,
	}, nil
}

func workers(cfg Config) int {
	if cfg.Workers > 0 {
		return cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Config returns the experiment configuration.
func (r *Runner) Config() Config { return r.cfg }

// RunID returns the identifier attached to every log record and report.
func (r *Runner) RunID() string { return r.runID }

// Resources returns the controller bounding the run.
func (r *Runner) Resources() *resource.Controller { return r.resources }

// Logger returns the run-scoped logger.
func (r *Runner) Logger() *Logger { return r.logger }

func (r *Runner) since(start time.Time) time.Duration {
	return r.opts.now().Sub(start)
}

// arbiterFor returns a fresh arbiter for one unit. Seeds differ per unit
// and stay stable across runs with the same Config.Seed.
func (r *Runner) arbiterFor(fold, unit int) *arbiter.Arbiter {
	seed := r.cfg.Seed ^ (uint64(fold+1) * 0x9e3779b97f4a7c15)
	seed += uint64(unit) * 0xbf58476d1ce4e5b9
	return arbiter.New(r.cfg.Mode, arbiter.WithSeed(seed))
}

// acquire reserves a worker slot and bank memory for one unit. The returned
// release must be called when the unit's bank is discarded.
func (r *Runner) acquire(ctx context.Context, bytes int64) (func(), error) {
	if err := r.resources.AcquireWorker(ctx); err != nil {
		return nil, err
	}
	if err := r.resources.AcquireMemory(ctx, bytes); err != nil {
		r.resources.ReleaseWorker()
		return nil, err
	}
	return func() {
		r.resources.ReleaseMemory(bytes)
		r.resources.ReleaseWorker()
	}, nil
}
