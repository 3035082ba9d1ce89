package app

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFetchLimiter_BlocksAtLimit(t *testing.T) {
	l := NewFetchLimiter(1)

	release, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	acquired := make(chan func())
	go func() {
		r, _ := l.Acquire(context.Background())
		acquired <- r
	}()

	select {
	case <-acquired:
		t.Fatalf("second acquire should block")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	release() // idempotent
	select {
	case r := <-acquired:
		if got := l.Stats().InFlight; got != 1 {
			t.Fatalf("want 1 in flight, got %d", got)
		}
		r()
	case <-time.After(250 * time.Millisecond):
		t.Fatalf("second acquire should have proceeded")
	}
	if got := l.Stats(); got.InFlight != 0 || got.Waiting != 0 {
		t.Fatalf("unexpected stats %+v", got)
	}
}

func TestFetchLimiter_RaisingLimitWakesWaiters(t *testing.T) {
	l := NewFetchLimiter(1)
	release, _ := l.Acquire(context.Background())

	done := make(chan func())
	go func() {
		r, _ := l.Acquire(context.Background())
		done <- r
	}()

	select {
	case <-done:
		t.Fatalf("acquire should block")
	case <-time.After(50 * time.Millisecond):
	}

	l.SetLimit(2)
	select {
	case r := <-done:
		r()
	case <-time.After(250 * time.Millisecond):
		t.Fatalf("waiter should have been woken by SetLimit")
	}
	release()
}

func TestFetchLimiter_HonorsContext(t *testing.T) {
	l := NewFetchLimiter(0)
	if got := l.Stats().Limit; got != 1 {
		t.Fatalf("non-positive limit should clamp to 1, got %d", got)
	}
	release, _ := l.Acquire(context.Background())
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := l.Acquire(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Fatalf("expected acquire to wait for context timeout")
	}
	if got := l.Stats().Waiting; got != 0 {
		t.Fatalf("cancelled waiter should be removed, got %d", got)
	}
}
