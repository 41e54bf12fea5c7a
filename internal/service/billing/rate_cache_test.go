package billing

import (
	"context"
	"testing"
	"time"

	models "maimai/internal/domain/models/billing"
)

func TestRateCache_ReadThrough(t *testing.T) {
	repo := newFakeCostRepo(&models.ModelCost{Model: "gpt-4o", InCost: 0.00001, OutCost: 0.00003, Markup: 1.5, Active: true})
	cache := NewRateCache(repo, time.Minute, discardLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rate, err := cache.GetActiveRate(ctx, "gpt-4o")
		if err != nil {
			t.Fatalf("GetActiveRate: %v", err)
		}
		if rate == nil || rate.Markup != 1.5 {
			t.Fatalf("unexpected rate: %+v", rate)
		}
	}
	if repo.reads != 1 {
		t.Errorf("expected 1 storage read, got %d", repo.reads)
	}
}

func TestRateCache_CachesMisses(t *testing.T) {
	repo := newFakeCostRepo()
	cache := NewRateCache(repo, time.Minute, discardLogger())

	for i := 0; i < 2; i++ {
		rate, err := cache.GetActiveRate(context.Background(), "unknown")
		if err != nil {
			t.Fatalf("GetActiveRate: %v", err)
		}
		if rate != nil {
			t.Fatalf("expected nil rate, got %+v", rate)
		}
	}
	if repo.reads != 1 {
		t.Errorf("expected 1 storage read, got %d", repo.reads)
	}
}

func TestRateCache_ExpiryAndInvalidate(t *testing.T) {
	repo := newFakeCostRepo(&models.ModelCost{Model: "m", Markup: 1, Active: true})
	cache := NewRateCache(repo, time.Minute, discardLogger())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	if _, err := cache.GetActiveRate(ctx, "m"); err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := cache.GetActiveRate(ctx, "m"); err != nil {
		t.Fatal(err)
	}
	if repo.reads != 2 {
		t.Fatalf("expected reload after ttl, reads=%d", repo.reads)
	}

	cache.Invalidate("m")
	if _, err := cache.GetActiveRate(ctx, "m"); err != nil {
		t.Fatal(err)
	}
	if repo.reads != 3 {
		t.Errorf("expected reload after invalidate, reads=%d", repo.reads)
	}
}

func TestRateCache_ReturnsCopies(t *testing.T) {
	repo := newFakeCostRepo(&models.ModelCost{Model: "m", Markup: 2, Active: true})
	cache := NewRateCache(repo, time.Minute, discardLogger())

	first, _ := cache.GetActiveRate(context.Background(), "m")
	first.Markup = 99

	second, _ := cache.GetActiveRate(context.Background(), "m")
	if second.Markup != 2 {
		t.Errorf("cached rate was mutated: markup=%v", second.Markup)
	}
}
