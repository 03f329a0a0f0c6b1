package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRunInvokesTickAndStopsOnCancel(t *testing.T) {
	sched := New(Options{Interval: 10 * time.Millisecond}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan time.Time, 1)

	done := make(chan error, 1)
	go func() {
		done <- sched.Run(ctx, func(_ context.Context, tick time.Time) error {
			select {
			case ticks <- tick:
			default:
			}
			return nil
		})
	}()

	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("tick function was never invoked")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestNextTickAlignsToInterval(t *testing.T) {
	sched := New(Options{Interval: time.Minute, AlignToStart: true}, zerolog.Nop())

	now := time.Date(2025, 6, 2, 14, 30, 25, 0, time.UTC)
	next := sched.nextTick(now)

	want := time.Date(2025, 6, 2, 14, 31, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}
}

func TestNextTickWithoutAlignment(t *testing.T) {
	sched := New(Options{Interval: time.Minute}, zerolog.Nop())

	now := time.Date(2025, 6, 2, 14, 30, 25, 0, time.UTC)
	next := sched.nextTick(now)

	if got := next.Sub(now); got != time.Minute {
		t.Fatalf("expected next tick one interval out, got %v", got)
	}
}
