package capture

import (
	"context"
	"testing"
	"time"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	q := NewQueue(2)
	require.NoError(t, q.Enqueue(shot(time.Minute, 0), shot(0, 1)))
	require.ErrorIs(t, q.Enqueue(shot(2*time.Minute, 2)), ErrQueueFull)
	require.ErrorIs(t, NewQueue(0).Enqueue(Observation{}), ErrInvalidObservation)

	items := q.Drain()
	require.Len(t, items, 2)
	require.Equal(t, base, items[0].Timestamp())
	require.Equal(t, 0, q.Len())
}

func TestRunOnce(t *testing.T) {
	repo := &fakeRepo{}
	p := newPipeline(repo, nil)
	q := NewQueue(0)
	r := NewRunner(p, q, time.Second, nil)
	r.now = func() time.Time { return base.Add(time.Minute) }
	ctx := context.Background()

	require.NoError(t, q.Enqueue(
		shot(30*time.Second, 1),
		shot(0, 0),
		Observation{Shell: &activity.ShellCommand{Command: "go test ./...", Timestamp: base.Add(40 * time.Second)}},
	))
	rep := r.RunOnce(ctx)
	require.Equal(t, TickReport{Processed: 3, Stored: 2, Discarded: 1}, rep)

	require.NoError(t, q.Enqueue(shot(10*time.Second, 0x3FF)))
	r.now = func() time.Time { return base.Add(time.Hour) }
	rep = r.RunOnce(ctx)
	require.Equal(t, 1, rep.Stale)
	require.Equal(t, "afk", p.Segmenter().State().String())
}

func TestRunOnceSkipsWhenBusy(t *testing.T) {
	r := NewRunner(newPipeline(&fakeRepo{}, nil), NewQueue(0), time.Second, nil)
	r.running.Store(true)
	require.True(t, r.RunOnce(context.Background()).Skipped)
}

func TestRunStopsOnCancel(t *testing.T) {
	r := NewRunner(newPipeline(&fakeRepo{}, nil), NewQueue(0), time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunOnceFinishesDrainedBatchAfterCancel(t *testing.T) {
	repo := &fakeRepo{}
	p := newPipeline(repo, nil)
	q := NewQueue(0)
	r := NewRunner(p, q, time.Second, nil)
	r.now = func() time.Time { return base.Add(time.Minute) }

	require.NoError(t, q.Enqueue(shot(0, 0), shot(30*time.Second, 0x3FF)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := r.RunOnce(ctx)
	require.Equal(t, 2, rep.Processed)
	require.Equal(t, 2, rep.Stored)
	require.Zero(t, rep.Failed)
	require.Equal(t, 0, q.Len())
	require.Len(t, repo.commits, 2)
}

func TestRunFlushesQueueOnStop(t *testing.T) {
	repo := &fakeRepo{}
	q := NewQueue(0)
	r := NewRunner(newPipeline(repo, nil), q, time.Hour, nil)
	r.now = func() time.Time { return base.Add(time.Minute) }
	require.NoError(t, q.Enqueue(shot(0, 0)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, r.Run(ctx))
	require.Equal(t, 0, q.Len())
	require.Len(t, repo.commits, 1)
}
