package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Checker runs one check over every tracked show.
type Checker interface {
	CheckAll(ctx context.Context) (CheckReport, error)
}

// CheckScheduler triggers CheckAll periodically. Ticks that fire while a run
// is still going are dropped by the ticker, so runs never overlap.
type CheckScheduler struct {
	logger  zerolog.Logger
	checker Checker

	Interval time.Duration
	// RunOnStart lance un check immédiatement au démarrage.
	RunOnStart bool
}

func NewCheckScheduler(logger zerolog.Logger, checker Checker, interval time.Duration) *CheckScheduler {
	return &CheckScheduler{
		logger:   logger,
		checker:  checker,
		Interval: interval,
	}
}

// Run blocks until ctx is done. A non-positive interval disables the scheduler.
func (sch *CheckScheduler) Run(ctx context.Context) {
	if sch.checker == nil || sch.Interval <= 0 {
		sch.logger.Info().Msg("check scheduler disabled")
		return
	}
	ticker := time.NewTicker(sch.Interval)
	defer ticker.Stop()

	if sch.RunOnStart {
		sch.tick(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			sch.logger.Info().Msg("check scheduler stopped")
			return
		case <-ticker.C:
			sch.tick(ctx)
		}
	}
}

func (sch *CheckScheduler) tick(ctx context.Context) {
	report, err := sch.checker.CheckAll(ctx)
	if err != nil {
		sch.logger.Error().Err(err).Msg("scheduled check failed")
		return
	}
	sch.logger.Info().
		Str("run_id", report.RunID).
		Int("new", report.NewEpisodeCount()).
		Int("failed", len(report.Failures())).
		Msg("scheduled check done")
}
