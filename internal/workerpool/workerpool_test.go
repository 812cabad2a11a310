package workerpool

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
)

func TestWorkerPool(t *testing.T) {
	pool := New[int, int](3, 10)
	if pool.Workers() != 3 {
		t.Fatalf("Workers() = %d, want 3", pool.Workers())
	}
	pool.Start(func(n int) int { return n * n })
	for i := 0; i < 10; i++ {
		pool.Submit(i)
	}
	pool.Close()

	var got []int
	for r := range pool.Results() {
		got = append(got, r)
	}
	sort.Ints(got)
	want := []int{0, 1, 4, 9, 16, 25, 36, 49, 64, 81}
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestNewSizing(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		jobs    int
		want    int
	}{
		{name: "fewer jobs than workers", workers: 8, jobs: 2, want: 2},
		{name: "more jobs than workers", workers: 2, jobs: 8, want: 2},
		{name: "unknown job count", workers: 4, jobs: 0, want: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New[int, int](tt.workers, tt.jobs).Workers(); got != tt.want {
				t.Errorf("Workers() = %d, want %d", got, tt.want)
			}
		})
	}

	if New[int, int](0, 0).Workers() < 1 {
		t.Error("default pool should have at least one worker")
	}
}

func TestMapPreservesOrder(t *testing.T) {
	got, err := Map(context.Background(), 4, 50, func(_ context.Context, i int) (string, error) {
		return string(rune('a' + i%26)), nil
	})
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	for i, s := range got {
		if want := string(rune('a' + i%26)); s != want {
			t.Errorf("got[%d] = %q, want %q", i, s, want)
		}
	}
}

func TestMapEmpty(t *testing.T) {
	got, err := Map(context.Background(), 2, 0, func(context.Context, int) (int, error) {
		t.Fatal("fn called for empty input")
		return 0, nil
	})
	if err != nil || len(got) != 0 {
		t.Errorf("Map() = %v, %v; want empty, nil", got, err)
	}
}

func TestMapReturnsLowestError(t *testing.T) {
	errThree := errors.New("session 3 failed")
	_, err := Map(context.Background(), 1, 10, func(_ context.Context, i int) (int, error) {
		if i == 3 {
			return 0, errThree
		}
		return i, nil
	})
	if !errors.Is(err, errThree) {
		t.Fatalf("Map() error = %v, want %v", err, errThree)
	}
}

func TestMapStopsAfterError(t *testing.T) {
	var calls atomic.Int32
	_, err := Map(context.Background(), 1, 100, func(_ context.Context, i int) (int, error) {
		calls.Add(1)
		if i == 0 {
			return 0, errors.New("boom")
		}
		return i, nil
	})
	if err == nil {
		t.Fatal("Map() should fail")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("fn called %d times with one worker, want 1", n)
	}
}

func TestMapCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Map(ctx, 2, 5, func(context.Context, int) (int, error) {
		return 1, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Map() error = %v, want context.Canceled", err)
	}
}
