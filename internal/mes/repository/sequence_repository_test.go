package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bitfantasy/harness-mes/internal/mes/testutil"
)

func TestSequenceNextStartsAtOne(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewSequenceRepository(db)
	ctx := context.Background()

	first, err := repo.Next(ctx, "MS")
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if first != 1 {
		t.Errorf("Expected first value 1, got %d", first)
	}

	second, err := repo.Next(ctx, "MS")
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if second != 2 {
		t.Errorf("Expected second value 2, got %d", second)
	}
}

func TestSequenceIndependentPerPrefixAndPeriod(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewSequenceRepository(db)
	ctx := context.Background()

	if _, err := repo.Next(ctx, "MS"); err != nil {
		t.Fatalf("Next MS: %v", err)
	}
	if _, err := repo.Next(ctx, "MS"); err != nil {
		t.Fatalf("Next MS: %v", err)
	}

	// 其他前缀独立计数
	v, err := repo.Next(ctx, "CA")
	if err != nil {
		t.Fatalf("Next CA: %v", err)
	}
	if v != 1 {
		t.Errorf("Expected CA to start at 1, got %d", v)
	}

	// 其他周期独立计数
	v, err = repo.NextForPeriod(ctx, "MS", "241223")
	if err != nil {
		t.Fatalf("NextForPeriod: %v", err)
	}
	if v != 1 {
		t.Errorf("Expected fresh period to start at 1, got %d", v)
	}
}

func TestSequenceConcurrentNoDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewSequenceRepository(db)

	const workers = 20
	values := make(chan int64, workers)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			v, err := repo.NextBundle(ctx)
			if err != nil {
				t.Errorf("NextBundle failed: %v", err)
				return
			}
			values <- v
		}()
	}
	wg.Wait()
	close(values)

	seen := make(map[int64]bool)
	count := 0
	for v := range values {
		if seen[v] {
			t.Errorf("Duplicate sequence value %d", v)
		}
		seen[v] = true
		count++
		if v < 1 || v > workers {
			t.Errorf("Value %d outside expected range 1..%d", v, workers)
		}
	}
	if count != workers {
		t.Errorf("Expected %d values, got %d", workers, count)
	}
}

func TestPeriodFormat(t *testing.T) {
	ts := time.Date(2024, 12, 23, 15, 4, 5, 0, time.UTC)
	if got := Period(ts); got != "241223" {
		t.Errorf("Period = %s, want 241223", got)
	}
}
