package background

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeTokenCleaner struct {
	calls int32
}

func (f *fakeTokenCleaner) CleanupExpired(ctx context.Context) (int64, error) {
	atomic.AddInt32(&f.calls, 1)
	return 2, nil
}

type fakeVisitCleaner struct {
	calls  int32
	cutoff atomic.Value
}

func (f *fakeVisitCleaner) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	atomic.AddInt32(&f.calls, 1)
	f.cutoff.Store(cutoff)
	return 5, nil
}

func TestCleanupManager_RunsImmediatelyAndStops(t *testing.T) {
	tokens := &fakeTokenCleaner{}
	visits := &fakeVisitCleaner{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cm := NewCleanupManager(tokens, visits, 90*24*time.Hour, logger, time.Hour)

	done := make(chan struct{})
	go func() {
		cm.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&tokens.calls) >= 1 && atomic.LoadInt32(&visits.calls) >= 1
	}, time.Second, 10*time.Millisecond, "cleanup runs once at startup")

	cm.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup manager did not stop")
	}

	cutoff, ok := visits.cutoff.Load().(time.Time)
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(-90*24*time.Hour), cutoff, time.Minute)
}

func TestCleanupManager_ContextCancellation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cm := NewCleanupManager(&fakeTokenCleaner{}, &fakeVisitCleaner{}, time.Hour, logger, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cm.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup manager did not exit on context cancellation")
	}
}
