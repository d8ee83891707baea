package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"groupmix/jobs"
	"groupmix/solver"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	events map[uuid.UUID][]solver.Progress
}

func (rec *recorder) sink(_ context.Context, id uuid.UUID, pr solver.Progress) error {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.events == nil {
		rec.events = map[uuid.UUID][]solver.Progress{}
	}
	rec.events[id] = append(rec.events[id], pr)
	return nil
}

func newRunner(limit int64) (*jobs.Runner, *jobs.Metrics) {
	m := jobs.NewMetrics(prometheus.NewRegistry())
	return jobs.NewRunner(zap.NewNop(), limit, m), m
}

func TestRunner_DeliversEveryRound(t *testing.T) {
	r, m := newRunner(2)
	rec := &recorder{}

	var ids []uuid.UUID
	for i := range 4 {
		id, err := r.Start(jobs.Job{
			Problem: solver.Problem{Groups: 3, OfSize: 2, Rounds: 3},
			Params:  solver.DefaultParams,
			Seed:    int64(i + 1),
			Sink:    rec.sink,
		})
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, id)
		ids = append(ids, id)
	}
	r.Close()

	require.Len(t, rec.events, 4)
	for _, id := range ids {
		evs := rec.events[id]
		require.Len(t, evs, 3)
		for i, ev := range evs {
			require.Len(t, ev.Rounds, i+1)
			require.Equal(t, i == 2, ev.Done)
		}
	}
	require.Equal(t, 4.0, testutil.ToFloat64(m.RunsStarted))
	require.Equal(t, 12.0, testutil.ToFloat64(m.Rounds))
	require.Equal(t, 0.0, testutil.ToFloat64(m.Waiting))
}

func TestRunner_KeepsGivenID(t *testing.T) {
	r, _ := newRunner(1)
	rec := &recorder{}
	want := uuid.New()
	got, err := r.Start(jobs.Job{
		ID:      want,
		Problem: solver.Problem{Groups: 2, OfSize: 2, Rounds: 1},
		Sink:    rec.sink,
	})
	require.NoError(t, err)
	require.Equal(t, want, got)
	r.Close()
	require.Len(t, rec.events[want], 1)
}

func TestRunner_SinkErrorsDoNotStopRun(t *testing.T) {
	r, m := newRunner(1)
	calls := 0
	_, err := r.Start(jobs.Job{
		Problem: solver.Problem{Groups: 2, OfSize: 2, Rounds: 3, Forbidden: [][]int{{0, 1, 2}}},
		Seed:    5,
		Sink: func(context.Context, uuid.UUID, solver.Progress) error {
			calls++
			return errors.New("store down")
		},
	})
	require.NoError(t, err)
	r.Close()
	require.Equal(t, 3, calls)
	require.Equal(t, 1.0, testutil.ToFloat64(m.RunsFinished.WithLabelValues("infeasible")))
}

func TestRunner_RejectsAfterClose(t *testing.T) {
	r, _ := newRunner(1)
	r.Close()
	_, err := r.Start(jobs.Job{Problem: solver.Problem{Groups: 1, OfSize: 1, Rounds: 1}})
	require.ErrorIs(t, err, jobs.ErrClosed)
}

func TestOutcome(t *testing.T) {
	require.Equal(t, "perfect", jobs.Outcome([]solver.Cost{0, 0}))
	require.Equal(t, "perfect", jobs.Outcome(nil))
	require.Equal(t, "imperfect", jobs.Outcome([]solver.Cost{0, 3}))
	require.Equal(t, "infeasible", jobs.Outcome([]solver.Cost{2, solver.Forbidden}))
}
