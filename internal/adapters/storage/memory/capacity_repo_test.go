package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pet-daycare-portal/internal/domain/capacity"
)

func day(d int) time.Time {
	return time.Date(2025, time.June, d, 0, 0, 0, 0, time.UTC)
}

func TestCapacityRepo_ReserveIsAllOrNothing(t *testing.T) {
	repo := NewCapacityRepo(2)
	ctx := context.Background()

	// la fecha del medio queda llena
	if err := repo.SetMaxCapacity(ctx, day(3), 0); err != nil {
		t.Fatalf("set max: %v", err)
	}

	dates := []time.Time{day(1), day(2), day(3), day(4), day(5)}
	err := repo.ReserveTentative(ctx, dates)
	if !errors.Is(err, capacity.ErrExceedsCapacity) {
		t.Fatalf("expected ErrExceedsCapacity, got %v", err)
	}

	days, _ := repo.GetDays(ctx, dates)
	for _, d := range days {
		if d.TentativeUnits != 0 {
			t.Fatalf("partial hold left on %v", d.Date)
		}
	}
}

func TestCapacityRepo_CommitConvertsHold(t *testing.T) {
	repo := NewCapacityRepo(2)
	ctx := context.Background()
	dates := []time.Time{day(1), day(2)}

	if err := repo.ReserveTentative(ctx, dates); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := repo.Commit(ctx, dates); err != nil {
		t.Fatalf("commit: %v", err)
	}

	days, _ := repo.GetDays(ctx, dates)
	for _, d := range days {
		if d.CommittedUnits != 1 || d.TentativeUnits != 0 {
			t.Fatalf("hold not converted: %+v", d)
		}
	}

	// sin hold no hay nada que commitear
	if err := repo.Commit(ctx, dates); err == nil {
		t.Fatal("expected error committing without hold")
	}
}

func TestCapacityRepo_CommitRevalidatesLoweredMax(t *testing.T) {
	repo := NewCapacityRepo(2)
	ctx := context.Background()
	target := []time.Time{day(1)}

	if err := repo.ReserveTentative(ctx, target); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	// override por debajo de lo ya comprometido + este hold
	if err := repo.SetMaxCapacity(ctx, day(1), 0); err != nil {
		t.Fatalf("set max: %v", err)
	}

	err := repo.Commit(ctx, target)
	if !errors.Is(err, capacity.ErrExceedsCapacity) {
		t.Fatalf("expected ErrExceedsCapacity against lowered max, got %v", err)
	}

	// el hold sigue vivo: se libera explícitamente, no se pierde
	if err := repo.ReleaseTentative(ctx, target); err != nil {
		t.Fatalf("release after failed commit: %v", err)
	}
}

func TestCapacityRepo_ReleaseGuards(t *testing.T) {
	repo := NewCapacityRepo(2)
	ctx := context.Background()
	target := []time.Time{day(1)}

	if err := repo.ReleaseTentative(ctx, target); err == nil {
		t.Fatal("expected error releasing tentative below zero")
	}
	if err := repo.ReleaseCommitted(ctx, target); err == nil {
		t.Fatal("expected error releasing committed below zero")
	}
}

func TestCapacityRepo_ConcurrentReservesNeverOversell(t *testing.T) {
	const max = 5
	const attempts = 50

	repo := NewCapacityRepo(max)
	ctx := context.Background()
	target := []time.Time{day(10)}

	var wg sync.WaitGroup
	var mu sync.Mutex
	oks := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.ReserveTentative(ctx, target); err == nil {
				mu.Lock()
				oks++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if oks != max {
		t.Fatalf("expected exactly %d successful reserves, got %d", max, oks)
	}
	days, _ := repo.GetDays(ctx, target)
	if days[0].TentativeUnits != max {
		t.Fatalf("tentative=%d, want %d", days[0].TentativeUnits, max)
	}
}
