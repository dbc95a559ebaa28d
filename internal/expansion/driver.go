package expansion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"termgraph/internal/association"
	"termgraph/internal/metrics"
	"termgraph/internal/terms"
	apperrors "termgraph/pkg/errors"
	"termgraph/pkg/logger"

	"go.uber.org/zap"
)

// Outcome is what one run did to one backend
type Outcome string

const (
	// OutcomeExpanded means a frontier term was expanded and saved
	OutcomeExpanded Outcome = "expanded"
	// OutcomeComplete means the backend has no frontier left
	OutcomeComplete Outcome = "complete"
	// OutcomeCapped means the store reached the term limit
	OutcomeCapped Outcome = "capped"
	// OutcomeFailed means the call or the save failed; the store file is unchanged
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped means an earlier failure stopped the run before this backend
	OutcomeSkipped Outcome = "skipped"
)

// Expander returns the terms related to term according to backend
type Expander interface {
	Expand(ctx context.Context, backend association.Backend, term string) ([]string, error)
}

// StepResult describes one backend's step
type StepResult struct {
	Model    string
	Outcome  Outcome
	Term     string
	NewTerms int
	Err      error
}

// Report collects the step results of a run in backend order
type Report struct {
	RunID string
	Steps []StepResult
}

// Failed returns the steps that failed
func (r *Report) Failed() []StepResult {
	var failed []StepResult
	for _, step := range r.Steps {
		if step.Outcome == OutcomeFailed {
			failed = append(failed, step)
		}
	}
	return failed
}

// Options tune a driver
type Options struct {
	// Delay is the pause after each expanded backend
	Delay time.Duration
	// MaxTerms stops expanding a backend once its map holds this many terms. 0 means no limit.
	MaxTerms int
	// FailFast stops the run at the first failing backend
	FailFast bool
	// RequestTimeout bounds each provider call. 0 means no timeout.
	RequestTimeout time.Duration
}

// Driver performs one expansion step per backend
type Driver struct {
	store    *terms.Store
	expander Expander
	backends []association.Backend
	opts     Options
	metrics  *metrics.Metrics
	wait     func(ctx context.Context, d time.Duration) error
	logger   *zap.Logger
}

// NewDriver creates a driver over backends, processed in the given order
func NewDriver(store *terms.Store, expander Expander, backends []association.Backend, opts Options) *Driver {
	return &Driver{
		store:    store,
		expander: expander,
		backends: backends,
		opts:     opts,
		wait:     sleep,
		logger:   logger.Named("expansion"),
	}
}

// SetMetrics enables outcome counters
func (d *Driver) SetMetrics(m *metrics.Metrics) {
	d.metrics = m
}

// Run expands the first frontier term of every backend.
// Every backend that was expanded before a failure keeps its saved state.
// Without FailFast the remaining backends still run and all failures are
// returned joined once the loop is done.
func (d *Driver) Run(ctx context.Context, runID string) (*Report, error) {
	report := &Report{RunID: runID}
	log := d.logger.With(logger.RunID(runID))

	var errs []error
	for i, backend := range d.backends {
		if err := ctx.Err(); err != nil {
			d.skipRemaining(report, i)
			return report, apperrors.NewContextCancelled("expansion run", err)
		}

		step := d.step(ctx, log, backend)
		report.Steps = append(report.Steps, step)
		d.metrics.ObserveExpansion(backend.Model, string(step.Outcome))

		if step.Outcome == OutcomeFailed {
			errs = append(errs, step.Err)
			if d.opts.FailFast {
				d.skipRemaining(report, i+1)
				return report, step.Err
			}
			continue
		}

		if step.Outcome == OutcomeExpanded && i < len(d.backends)-1 {
			if err := d.wait(ctx, d.opts.Delay); err != nil {
				d.skipRemaining(report, i+1)
				return report, apperrors.NewContextCancelled("expansion delay", err)
			}
		}
	}

	return report, errors.Join(errs...)
}

func (d *Driver) step(ctx context.Context, log *zap.Logger, backend association.Backend) StepResult {
	result := StepResult{Model: backend.Model}
	log = log.With(logger.Model(backend.Model))

	m, err := d.store.Load(backend.Model)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		log.Error("Failed to load term store", zap.Error(err))
		return result
	}

	if d.opts.MaxTerms > 0 && m.Len() >= d.opts.MaxTerms {
		result.Outcome = OutcomeCapped
		log.Info("Term limit reached", zap.Int("terms", m.Len()), zap.Int("max_terms", d.opts.MaxTerms))
		return result
	}

	term, ok := m.Frontier()
	if !ok {
		result.Outcome = OutcomeComplete
		log.Info("All terms have been processed", zap.Int("terms", m.Len()))
		return result
	}
	result.Term = term

	callCtx := ctx
	if d.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.opts.RequestTimeout)
		defer cancel()
	}

	associations, err := d.expander.Expand(callCtx, backend, term)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = fmt.Errorf("expand %q with %s: %w", term, backend.Model, err)
		log.Error("Expansion failed", zap.String("term", term), zap.Error(err))
		return result
	}

	added, err := m.Expand(term, associations)
	if err != nil {
		// Frontier() returned term, so this only fires on a broken map
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}

	if err := d.store.Save(backend.Model, m); err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		log.Error("Failed to save term store", zap.Error(err))
		return result
	}

	result.Outcome = OutcomeExpanded
	result.NewTerms = len(added)
	log.Info("Term expanded",
		zap.String("term", term),
		zap.Int("associations", len(associations)),
		zap.Int("new_terms", len(added)),
		zap.Int("terms", m.Len()),
	)
	return result
}

func (d *Driver) skipRemaining(report *Report, from int) {
	for _, backend := range d.backends[from:] {
		report.Steps = append(report.Steps, StepResult{Model: backend.Model, Outcome: OutcomeSkipped})
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
