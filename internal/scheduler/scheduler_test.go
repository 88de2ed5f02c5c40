package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestStart_RunsImmediatelyAndRepeats(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		New(zap.NewNop()).Start(ctx, Cycle{
			Name:     "quote",
			Interval: 10 * time.Millisecond,
			Run: func(context.Context) error {
				runs.Add(1)
				return nil
			},
		})
	}()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 },
		time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestStart_ErrorDoesNotStopCycle(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		New(zap.NewNop()).Start(ctx, Cycle{
			Name:     "liquidation",
			Interval: 10 * time.Millisecond,
			Run: func(context.Context) error {
				runs.Add(1)
				return errors.New("venue unavailable")
			},
		})
	}()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 },
		time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestStart_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		New(zap.NewNop()).Start(ctx, Cycle{
			Name:     "quote",
			Interval: time.Hour,
			Run:      func(context.Context) error { return nil },
		})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}
