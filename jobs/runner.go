// Package jobs runs solver problems in the background so callers such as
// HTTP handlers return immediately. Each run owns its own weights and random
// source; the only shared state is the concurrency limit.
package jobs

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"groupmix/solver"
)

var ErrClosed = errors.New("runner is closed")

// Sink receives every progress snapshot of a run, in round order.
type Sink func(ctx context.Context, id uuid.UUID, pr solver.Progress) error

type Job struct {
	// ID is assigned by Start when left as uuid.Nil.
	ID      uuid.UUID
	Problem solver.Problem
	Params  solver.Params
	Seed    int64
	Sink    Sink
}

type Runner struct {
	log     *zap.Logger
	sem     *semaphore.Weighted
	metrics *Metrics

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewRunner(log *zap.Logger, limit int64, metrics *Metrics) *Runner {
	if limit < 1 {
		limit = 1
	}
	return &Runner{
		log:     log,
		sem:     semaphore.NewWeighted(limit),
		metrics: metrics,
	}
}

// Start queues a job and returns its ID without waiting for it to run.
func (r *Runner) Start(job Job) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return uuid.Nil, ErrClosed
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Seed == 0 {
		job.Seed = time.Now().UnixNano()
	}
	r.metrics.RunsStarted.Inc()
	r.metrics.Waiting.Inc()
	r.wg.Add(1)
	go r.run(job)
	return job.ID, nil
}

// Close stops accepting jobs and waits for queued and running ones.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) run(job Job) {
	defer r.wg.Done()
	ctx := context.Background()
	log := r.log.With(zap.Stringer("run", job.ID), zap.Int64("seed", job.Seed))

	// Acquire only fails on a cancelled context.
	_ = r.sem.Acquire(ctx, 1)
	defer r.sem.Release(1)
	r.metrics.Waiting.Dec()

	start := time.Now()
	log.Info("run started",
		zap.Int("groups", job.Problem.Groups),
		zap.Int("of_size", job.Problem.OfSize),
		zap.Int("rounds", job.Problem.Rounds),
		zap.Bool("leaders", job.Problem.Leaders))

	var last solver.Progress
	solver.Run(job.Problem, job.Params, rand.New(rand.NewSource(job.Seed)), func(pr solver.Progress) {
		last = pr
		round := len(pr.RoundScores)
		cost := pr.RoundScores[round-1]
		r.metrics.Rounds.Inc()
		if !cost.IsForbidden() {
			r.metrics.RoundCost.Observe(float64(cost))
		}
		log.Debug("round planned", zap.Int("round", round), zap.Any("cost", cost))
		if job.Sink == nil {
			return
		}
		if err := job.Sink(ctx, job.ID, pr); err != nil {
			log.Error("storing progress", zap.Int("round", round), zap.Error(err))
		}
	})

	elapsed := time.Since(start)
	outcome := Outcome(last.RoundScores)
	r.metrics.RunDuration.Observe(elapsed.Seconds())
	r.metrics.RunsFinished.WithLabelValues(outcome).Inc()
	log.Info("run finished", zap.String("outcome", outcome), zap.Duration("elapsed", elapsed))
}

// Outcome classifies a run by its round scores: "infeasible" if any round
// could not avoid a forbidden pair, "perfect" if no pair ever met twice,
// otherwise "imperfect".
func Outcome(scores []solver.Cost) string {
	switch {
	case slices.ContainsFunc(scores, solver.Cost.IsForbidden):
		return "infeasible"
	case slices.ContainsFunc(scores, func(c solver.Cost) bool { return c > 0 }):
		return "imperfect"
	default:
		return "perfect"
	}
}
