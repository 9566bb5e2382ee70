package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func TestRun_ImmediateFirstCycle(t *testing.T) {
	// WHAT: Run executes the cycle once right away, before the first tick.
	// WHY: A fresh start must populate data without waiting an hour.
	var calls atomic.Int32
	s := New(func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, Config{Interval: time.Hour}, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("first cycle never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
	if calls.Load() != 1 {
		t.Errorf("calls: got %d, want 1", calls.Load())
	}
}

func TestRun_TicksAndSurvivesFailures(t *testing.T) {
	// WHAT: A failing cycle is logged and the ticker keeps going.
	// WHY: One bad upstream hour must not stop ingestion for good.
	var calls atomic.Int32
	s := New(func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("upstream down")
	}, Config{Interval: 20 * time.Millisecond}, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("cycles stalled at %d", calls.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestConfigDefaults(t *testing.T) {
	// WHAT: Zero config defaults to an hourly interval.
	// WHY: The hourly cadence is the documented operating mode.
	c := Config{}
	c.defaults()
	if c.Interval != time.Hour {
		t.Errorf("interval: got %v, want 1h", c.Interval)
	}
}
