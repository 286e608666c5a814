// Package fitness owns the boundary to the external benchmark that scores
// mutated artifacts. Everything flaky about that boundary (latency, errors,
// rate limits) is absorbed here: callers always get a FitnessResult back.
package fitness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"pathogen/internal/metrics"
	"pathogen/internal/model"
)

// ErrScoreTimeout marks a scorer call that exceeded the per-call deadline.
var ErrScoreTimeout = errors.New("fitness: score timed out")

// Scorer computes the benchmark score of the artifact produced by one
// mutation. Implementations must honor ctx cancellation.
type Scorer interface {
	Score(ctx context.Context, mutation model.Mutation) (float64, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(ctx context.Context, mutation model.Mutation) (float64, error)

func (f ScorerFunc) Score(ctx context.Context, mutation model.Mutation) (float64, error) {
	return f(ctx, mutation)
}

type Config struct {
	Scorer Scorer
	// Slots bounds concurrent scorer calls; excess evaluations queue on a
	// semaphore instead of flooding the external benchmark.
	Slots int64
	// Timeout applies to each scorer call individually.
	Timeout time.Duration
	// RetryBackoff is the fixed delay before the single retry of a failed
	// or timed-out call.
	RetryBackoff time.Duration
	Baseline     float64
	Logger       *zap.Logger
}

func defaultConfig() Config {
	return Config{
		Slots:        2,
		Timeout:      30 * time.Second,
		RetryBackoff: 500 * time.Millisecond,
	}
}

// Evaluator scores mutations against a rolling baseline. Safe for
// concurrent use; calls beyond the configured slots wait on the semaphore.
type Evaluator struct {
	cfg Config
	sem *semaphore.Weighted

	evaluations atomic.Int64

	mu       sync.RWMutex
	baseline float64
}

func NewEvaluator(cfg Config) (*Evaluator, error) {
	if cfg.Scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	def := defaultConfig()
	if cfg.Slots <= 0 {
		cfg.Slots = def.Slots
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Evaluator{
		cfg:      cfg,
		sem:      semaphore.NewWeighted(cfg.Slots),
		baseline: cfg.Baseline,
	}, nil
}

// SetBaseline replaces the score all future evaluations compare against.
func (e *Evaluator) SetBaseline(score float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.baseline = score
}

func (e *Evaluator) Baseline() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.baseline
}

// Evaluations returns the rolling count of Evaluate calls.
func (e *Evaluator) Evaluations() int64 {
	return e.evaluations.Load()
}

// Evaluate scores one mutation and never fails: scorer errors, timeouts,
// and cancellation all normalize to success=false, delta=0. A transient
// failure is retried exactly once after a fixed backoff.
func (e *Evaluator) Evaluate(ctx context.Context, generation int, mutation model.Mutation) model.FitnessResult {
	e.evaluations.Add(1)
	start := time.Now()
	defer func() {
		metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	}()

	score, err := e.scoreOnce(ctx, mutation)
	if err != nil && ctx.Err() == nil {
		metrics.EvaluationRetries.Inc()
		e.cfg.Logger.Warn("score failed, retrying once",
			zap.String("mutation_id", mutation.ID),
			zap.Error(err),
		)

		timer := time.NewTimer(e.cfg.RetryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			metrics.EvaluationsTotal.WithLabelValues("failure").Inc()
			return e.failed(generation, mutation)
		case <-timer.C:
		}
		score, err = e.scoreOnce(ctx, mutation)
	}
	if err != nil {
		e.cfg.Logger.Warn("score failed permanently",
			zap.String("mutation_id", mutation.ID),
			zap.Error(err),
		)
		metrics.EvaluationsTotal.WithLabelValues("failure").Inc()
		return e.failed(generation, mutation)
	}

	delta := score - e.Baseline()
	success := delta > 0
	if success {
		metrics.EvaluationsTotal.WithLabelValues("success").Inc()
	} else {
		metrics.EvaluationsTotal.WithLabelValues("no_improvement").Inc()
	}

	return model.FitnessResult{
		MutationID:   mutation.ID,
		Generation:   generation,
		Type:         mutation.Type,
		Operator:     mutation.Operator,
		Confidence:   mutation.Confidence,
		Success:      success,
		FitnessDelta: delta,
		Timestamp:    epochSeconds(time.Now()),
	}
}

// scoreOnce makes one scorer call holding a semaphore slot for its duration.
// The slot is released before any retry backoff so waiting callers can use it.
func (e *Evaluator) scoreOnce(ctx context.Context, mutation model.Mutation) (float64, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer e.sem.Release(1)

	scoreCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	score, err := e.cfg.Scorer.Score(scoreCtx, mutation)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return 0, fmt.Errorf("%w: %s after %s", ErrScoreTimeout, mutation.ID, e.cfg.Timeout)
		}
		return 0, err
	}
	return score, nil
}

func (e *Evaluator) failed(generation int, mutation model.Mutation) model.FitnessResult {
	return model.FitnessResult{
		MutationID:   mutation.ID,
		Generation:   generation,
		Type:         mutation.Type,
		Operator:     mutation.Operator,
		Confidence:   mutation.Confidence,
		Success:      false,
		FitnessDelta: 0,
		Timestamp:    epochSeconds(time.Now()),
	}
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
