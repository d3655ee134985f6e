// Package scheduler triggers refresh cycles on a fixed wall-clock interval.
// Overlap handling lives entirely in the orchestrator's single-flight guard;
// the scheduler is a dumb ticking source.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/SHASHWATSINHA024/insighty/internal/refresh"
)

// Runner starts one refresh cycle.
type Runner interface {
	Run(ctx context.Context) (*refresh.Result, error)
}

// Scheduler fires refresh cycles periodically.
type Scheduler struct {
	runner   Runner
	interval time.Duration
}

// New creates a scheduler. interval <= 0 defaults to 4 minutes.
func New(runner Runner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 4 * time.Minute
	}
	return &Scheduler{runner: runner, interval: interval}
}

// Run fires one cycle immediately, then on every tick. Blocks until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	fmt.Fprintf(os.Stderr, "scheduler: running (refresh every %s)\n", s.interval)
	s.fire(ctx)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "scheduler: stopped")
			return ctx.Err()
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	if _, err := s.runner.Run(ctx); err != nil && !errors.Is(err, refresh.ErrCycleRunning) {
		fmt.Fprintf(os.Stderr, "scheduler: refresh error: %v\n", err)
	}
}

// Stop is a placeholder; timer teardown happens through context
// cancellation in Run.
func (s *Scheduler) Stop() {
	fmt.Fprintln(os.Stderr, "scheduler: stop requested")
}
