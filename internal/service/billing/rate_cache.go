package billing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	models "maimai/internal/domain/models/billing"
	billingRepo "maimai/internal/domain/repositories/billing"
	billingSvc "maimai/internal/domain/services/billing"
)

type rateEntry struct {
	rate      *models.ModelCost // nil records a miss
	expiresAt time.Time
}

// RateCache is an in-process read-through cache of active rate records.
// Misses are cached too so an unpriced model does not hit storage on every send.
type RateCache struct {
	reader  billingRepo.ModelCostReader
	ttl     time.Duration
	entries map[string]rateEntry
	mu      sync.RWMutex
	now     func() time.Time
	logger  *slog.Logger
}

// NewRateCache creates a rate cache over the given reader
func NewRateCache(reader billingRepo.ModelCostReader, ttl time.Duration, logger *slog.Logger) *RateCache {
	return &RateCache{
		reader:  reader,
		ttl:     ttl,
		entries: make(map[string]rateEntry),
		now:     time.Now,
		logger:  logger,
	}
}

var _ billingSvc.RateCache = (*RateCache)(nil)

// GetActiveRate returns the active rate for model, or nil when none is active
func (c *RateCache) GetActiveRate(ctx context.Context, model string) (*models.ModelCost, error) {
	c.mu.RLock()
	entry, ok := c.entries[model]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expiresAt) {
		return copyRate(entry.rate), nil
	}

	rate, err := c.reader.GetActive(ctx, model)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[model] = rateEntry{rate: rate, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()

	if rate == nil {
		c.logger.Debug("no active rate", "model", model)
	}

	return copyRate(rate), nil
}

// Invalidate drops the cached entry for model
func (c *RateCache) Invalidate(model string) {
	c.mu.Lock()
	delete(c.entries, model)
	c.mu.Unlock()
}

// copyRate keeps callers from mutating the cached record
func copyRate(rate *models.ModelCost) *models.ModelCost {
	if rate == nil {
		return nil
	}
	cp := *rate
	return &cp
}
