package task

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFutureAwaitReturnsResolvedValue(t *testing.T) {
	f, resolve := NewFuture[int]()
	go resolve(42, nil)

	got, err := f.Await(context.Background())
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestFutureResolvesAtMostOnce(t *testing.T) {
	f, resolve := NewFuture[string]()
	resolve("first", nil)
	resolve("second", errors.New("ignored"))

	got, err := f.Await(context.Background())
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if got != "first" {
		t.Fatalf("expected first resolution to win, got %q", got)
	}
}

func TestFutureAwaitHonorsCancellation(t *testing.T) {
	f, _ := NewFuture[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Await(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFutureRepeatedAwaitDoesNotBlock(t *testing.T) {
	f := Resolved(7, nil)
	for i := 0; i < 3; i++ {
		got, err := f.Await(context.Background())
		if err != nil || got != 7 {
			t.Fatalf("await %d: got %d, %v", i, got, err)
		}
	}
	if !f.Done() {
		t.Fatal("expected resolved future to report done")
	}
}

// Loading two stages concurrently must complete in roughly the duration of
// one simulated load, not the sum of both.
func TestConcurrentLoadsOverlap(t *testing.T) {
	const delay = 100 * time.Millisecond
	p := NewPool(2)
	defer p.Close()

	start := time.Now()
	a := Submit(p, func() (int, error) {
		time.Sleep(delay)
		return 1, nil
	})
	b := Submit(p, func() (int, error) {
		time.Sleep(delay)
		return 2, nil
	})

	ctx := context.Background()
	if _, err := a.Await(ctx); err != nil {
		t.Fatalf("await a: %v", err)
	}
	if _, err := b.Await(ctx); err != nil {
		t.Fatalf("await b: %v", err)
	}

	elapsed := time.Since(start)
	if elapsed >= 2*delay {
		t.Fatalf("loads did not overlap: %v elapsed for two %v loads", elapsed, delay)
	}
}

func TestPoolRunsAllTasks(t *testing.T) {
	p := NewPool(4)
	results := make(chan int, 16)
	for i := 0; i < 16; i++ {
		i := i
		p.Go(func() { results <- i })
	}
	p.Close()
	close(results)

	seen := make(map[int]bool)
	for r := range results {
		seen[r] = true
	}
	if len(seen) != 16 {
		t.Fatalf("expected 16 distinct results, got %d", len(seen))
	}
}
