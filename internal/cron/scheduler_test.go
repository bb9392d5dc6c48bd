package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"tradeidea/internal/autogen"
)

type fakeSweeper struct {
	mu      sync.Mutex
	sources []string
	err     error
	panics  bool
}

func (f *fakeSweeper) SweepFrom(_ context.Context, source string) (autogen.SweepResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics {
		panic("boom")
	}
	f.sources = append(f.sources, source)
	return autogen.SweepResult{Processed: 1}, f.err
}

func TestScheduler_RunSweepUsesCronSource(t *testing.T) {
	sw := &fakeSweeper{}
	s := New(sw, "@every 1m", 0, nil, zap.NewNop())

	s.runSweep()

	assert.Equal(t, []string{autogen.SourceCron}, sw.sources)
}

func TestScheduler_RunSweepLeavesSummaryToSweeper(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := New(&fakeSweeper{}, "@every 1m", 0, nil, zap.New(core))

	s.runSweep()

	assert.Zero(t, logs.Len())
}

func TestScheduler_SweepErrorAndPanicAreContained(t *testing.T) {
	s := New(&fakeSweeper{err: errors.New("db down")}, "@every 1m", 0, nil, zap.NewNop())
	assert.NotPanics(t, s.runSweep)

	s = New(&fakeSweeper{panics: true}, "@every 1m", 0, nil, zap.NewNop())
	assert.NotPanics(t, s.runSweep)
}

func TestScheduler_RetentionCutoff(t *testing.T) {
	now := time.Date(2025, 6, 10, 3, 30, 0, 0, time.UTC)
	var got []time.Time
	purge := func(_ context.Context, cutoff time.Time) (int64, error) {
		got = append(got, cutoff)
		return 3, nil
	}
	failing := func(context.Context, time.Time) (int64, error) {
		return 0, errors.New("locked")
	}

	s := New(&fakeSweeper{}, "@every 1m", 48*time.Hour, map[string]PurgeFunc{
		"notifications": purge,
		"sweep_runs":    failing,
	}, zap.NewNop())
	s.now = func() time.Time { return now }

	s.runRetention()

	require.Len(t, got, 1)
	assert.Equal(t, now.Add(-48*time.Hour), got[0])
}

func TestScheduler_StartRejectsBadSpec(t *testing.T) {
	s := New(&fakeSweeper{}, "not a spec", 0, nil, zap.NewNop())
	assert.Error(t, s.Start())
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(&fakeSweeper{}, "@every 1h", time.Hour, map[string]PurgeFunc{
		"noop": func(context.Context, time.Time) (int64, error) { return 0, nil },
	}, zap.NewNop())
	require.NoError(t, s.Start())

	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Error(t, s.ctx.Err())
}
