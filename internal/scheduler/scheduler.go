package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Satis-Foundation/Sigma-mining/internal/metrics"
)

// Cycle is one periodic unit of work. Run executes once immediately and then
// once per Interval until the context is cancelled. An error from Run is
// logged and the cycle keeps ticking.
type Cycle struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Start blocks running the cycle until ctx is cancelled. Callers run each
// cycle on its own goroutine.
func (s *Scheduler) Start(ctx context.Context, cycle Cycle) {
	ticker := time.NewTicker(cycle.Interval)
	defer ticker.Stop()

	for {
		s.runOnce(ctx, cycle)

		select {
		case <-ticker.C:
			continue
		case <-ctx.Done():
			s.logger.Info("scheduler.cycle_stopped", zap.String("cycle", cycle.Name))
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, cycle Cycle) {
	start := time.Now()
	if err := cycle.Run(ctx); err != nil {
		metrics.IncCycle(cycle.Name, "error")
		s.logger.Warn("scheduler.cycle_failed",
			zap.String("cycle", cycle.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}
	metrics.IncCycle(cycle.Name, "ok")
	s.logger.Debug("scheduler.cycle_complete",
		zap.String("cycle", cycle.Name),
		zap.Duration("elapsed", time.Since(start)))
}
