package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingChecker struct {
	calls atomic.Int32
	err   error
}

func (c *countingChecker) CheckAll(ctx context.Context) (CheckReport, error) {
	c.calls.Add(1)
	return CheckReport{RunID: "run"}, c.err
}

func TestCheckScheduler_RunsUntilCanceled(t *testing.T) {
	checker := &countingChecker{}
	sch := NewCheckScheduler(zerolog.Nop(), checker, 5*time.Millisecond)
	sch.RunOnStart = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sch.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for checker.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("scheduler did not tick, calls=%d", checker.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("scheduler did not stop")
	}
}

func TestCheckScheduler_DisabledWithoutInterval(t *testing.T) {
	checker := &countingChecker{err: errors.New("unused")}
	sch := NewCheckScheduler(zerolog.Nop(), checker, 0)
	sch.RunOnStart = true

	done := make(chan struct{})
	go func() {
		sch.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("disabled scheduler must return immediately")
	}
	if checker.calls.Load() != 0 {
		t.Fatalf("disabled scheduler ran a check")
	}
}
