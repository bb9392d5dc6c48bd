package autogen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tradeidea/internal/models"
)

func TestSweep_IsolatesFailures(t *testing.T) {
	a := hourlySchedule("a", testNow.Add(-time.Hour))
	b := hourlySchedule("b", testNow.Add(-time.Minute))
	c := hourlySchedule("c", testNow)
	store := newMemStore(a, b, c)
	gen := &fakeGenerator{GenerateFunc: func(_ context.Context, userID string) (*Idea, error) {
		if userID == "b" {
			return nil, errors.New("generator unavailable")
		}
		return &Idea{Direction: "LONG"}, nil
	}}
	o := newTestOrchestrator(store, gen, &fakeNotifier{}, &fakeLocker{})

	res, err := NewSweeper(store, o, zap.NewNop()).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Errors)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, gen.calls)

	for _, s := range []*models.AutoGenerationSchedule{a, b, c} {
		got := store.get(s.ID)
		assert.True(t, got.NextTrigger.After(testNow), "user %s left stale", s.UserID)
	}
	assert.Equal(t, 1, store.get(b.ID).RetryCount)
}

func TestSweep_PanicDoesNotAbort(t *testing.T) {
	store := newMemStore(hourlySchedule("a", testNow), hourlySchedule("b", testNow))
	store.SaveFunc = func(_ context.Context, id uint, _ int64, _ models.ScheduleUpdate) error {
		if id == 1 {
			panic("corrupt row")
		}
		return nil
	}
	o := newTestOrchestrator(store, okGenerator(nil), nil, nil)

	res, err := NewSweeper(store, o, zap.NewNop()).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Errors)
}

func TestSweep_SkipsPausedAndNotDue(t *testing.T) {
	paused := hourlySchedule("paused", testNow.Add(-24*time.Hour))
	paused.IsPaused = true
	future := hourlySchedule("future", testNow.Add(time.Minute))
	due := hourlySchedule("due", testNow)
	store := newMemStore(paused, future, due)
	gen := okGenerator(nil)
	o := newTestOrchestrator(store, gen, nil, nil)

	res, err := NewSweeper(store, o, zap.NewNop()).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Processed: 1}, res)
	assert.Equal(t, []string{"due"}, gen.calls)
	assert.Equal(t, paused.NextTrigger, store.get(paused.ID).NextTrigger)
}

func TestSweep_StaleQueryRowIsSkipped(t *testing.T) {
	sched := hourlySchedule("user-1", testNow)
	store := newMemStore(sched)
	stale := *sched
	// Another sweep already advanced the row after this query ran.
	store.rows[sched.ID].NextTrigger = testNow.Add(time.Hour)
	store.QueryDueFunc = func(context.Context, time.Time) ([]models.AutoGenerationSchedule, error) {
		return []models.AutoGenerationSchedule{stale}, nil
	}
	gen := okGenerator(nil)

	res, err := NewSweeper(store, newTestOrchestrator(store, gen, nil, nil), zap.NewNop()).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, gen.calls)
}

func TestSweep_LeasedUserIsSkipped(t *testing.T) {
	store := newMemStore(hourlySchedule("a", testNow), hourlySchedule("b", testNow))
	locker := &fakeLocker{held: map[string]bool{"autogen:user:a": true}}
	o := newTestOrchestrator(store, okGenerator(nil), nil, locker)

	res, err := NewSweeper(store, o, zap.NewNop()).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Skipped)
}

func TestSweep_QueryFailure(t *testing.T) {
	store := newMemStore()
	store.QueryDueFunc = func(context.Context, time.Time) ([]models.AutoGenerationSchedule, error) {
		return nil, errors.New("connection reset")
	}
	o := newTestOrchestrator(store, okGenerator(nil), nil, nil)

	_, err := NewSweeper(store, o, zap.NewNop()).Sweep(context.Background())
	assert.ErrorContains(t, err, "connection reset")
}

func TestSweep_StopsOnCancel(t *testing.T) {
	store := newMemStore(hourlySchedule("a", testNow), hourlySchedule("b", testNow))
	ctx, cancel := context.WithCancel(context.Background())
	gen := &fakeGenerator{GenerateFunc: func(context.Context, string) (*Idea, error) {
		cancel()
		return &Idea{}, nil
	}}
	o := newTestOrchestrator(store, gen, nil, nil)

	res, err := NewSweeper(store, o, zap.NewNop()).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Len(t, gen.calls, 1)
}

type recordedRun struct {
	source string
	due    int
	items  map[string]string
	res    SweepResult
	errMsg string
}

type fakeRecorder struct {
	runs []*recordedRun
}

func (r *fakeRecorder) Begin(_ context.Context, source string, due int, _ time.Time) (uint, error) {
	r.runs = append(r.runs, &recordedRun{source: source, due: due, items: map[string]string{}})
	return uint(len(r.runs)), nil
}

func (r *fakeRecorder) RecordItem(_ context.Context, runID uint, userID, outcome, _ string) error {
	r.runs[runID-1].items[userID] = outcome
	return nil
}

func (r *fakeRecorder) Finish(_ context.Context, runID uint, res SweepResult, errMsg string) error {
	r.runs[runID-1].res = res
	r.runs[runID-1].errMsg = errMsg
	return nil
}

func TestSweep_RecordsHistory(t *testing.T) {
	store := newMemStore(hourlySchedule("ok", testNow), hourlySchedule("bad", testNow), hourlySchedule("busy", testNow))
	gen := &fakeGenerator{GenerateFunc: func(_ context.Context, userID string) (*Idea, error) {
		if userID == "bad" {
			return nil, errors.New("quota")
		}
		return &Idea{}, nil
	}}
	locker := &fakeLocker{held: map[string]bool{"autogen:user:busy": true}}
	rec := &fakeRecorder{}

	sweeper := NewSweeper(store, newTestOrchestrator(store, gen, nil, locker), zap.NewNop()).WithRecorder(rec)
	res, err := sweeper.SweepFrom(context.Background(), SourceCron)
	require.NoError(t, err)

	require.Len(t, rec.runs, 1)
	run := rec.runs[0]
	assert.Equal(t, SourceCron, run.source)
	assert.Equal(t, 3, run.due)
	assert.Equal(t, map[string]string{"ok": ItemProcessed, "bad": ItemFailed, "busy": ItemSkipped}, run.items)
	assert.Equal(t, res, run.res)
	assert.Empty(t, run.errMsg)
}

func TestSweep_RecordsQueryFailure(t *testing.T) {
	store := newMemStore()
	store.QueryDueFunc = func(context.Context, time.Time) ([]models.AutoGenerationSchedule, error) {
		return nil, errors.New("timeout")
	}
	rec := &fakeRecorder{}

	_, err := NewSweeper(store, newTestOrchestrator(store, nil, nil, nil), zap.NewNop()).WithRecorder(rec).Sweep(context.Background())
	require.Error(t, err)
	require.Len(t, rec.runs, 1)
	assert.Equal(t, SourceHTTP, rec.runs[0].source)
	assert.Equal(t, "timeout", rec.runs[0].errMsg)
}

func TestSweep_CancelDuringGenerationFinishesCurrentUser(t *testing.T) {
	a := hourlySchedule("a", testNow.Add(-time.Hour))
	b := hourlySchedule("b", testNow.Add(-time.Minute))
	store := newMemStore(a, b)
	store.SaveFunc = func(ctx context.Context, _ uint, _ int64, _ models.ScheduleUpdate) error {
		return ctx.Err()
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gen := &fakeGenerator{GenerateFunc: func(context.Context, string) (*Idea, error) {
		cancel()
		return &Idea{Direction: "LONG"}, nil
	}}
	o := newTestOrchestrator(store, gen, &fakeNotifier{}, &fakeLocker{})

	res, err := NewSweeper(store, o, zap.NewNop()).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 0, res.Errors)
	assert.Equal(t, []string{"a"}, gen.calls)
	assert.True(t, store.get(a.ID).NextTrigger.After(testNow))
}
