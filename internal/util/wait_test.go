package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitForReturnsImmediatelyOnNonPositive(t *testing.T) {
	ctx := context.Background()

	if err := WaitFor(ctx, 0); err != nil {
		t.Fatalf("expected nil error for zero duration, got %v", err)
	}

	if err := WaitFor(ctx, -time.Second); err != nil {
		t.Fatalf("expected nil error for negative duration, got %v", err)
	}
}

func TestWaitForCompletesSleep(t *testing.T) {
	slept := time.Duration(0)
	original := sleep
	sleep = func(d time.Duration) { slept = d }
	defer func() { sleep = original }()

	if err := WaitFor(context.Background(), 25*time.Millisecond); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if slept != 25*time.Millisecond {
		t.Fatalf("expected sleep of 25ms, got %v", slept)
	}
}

func TestWaitForHonoursCancellation(t *testing.T) {
	original := sleep
	sleep = func(d time.Duration) { time.Sleep(250 * time.Millisecond) }
	defer func() { sleep = original }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitFor(ctx, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
