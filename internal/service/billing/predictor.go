package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	billingRepo "maimai/internal/domain/repositories/billing"
	billingSvc "maimai/internal/domain/services/billing"
)

// predictionWindow is how many recent messages feed the rolling average
const predictionWindow = 1000

// CreditCostHistory supplies recent billed costs per model
type CreditCostHistory interface {
	RecentCreditCosts(ctx context.Context, model string, limit int) ([]int, error)
}

// Predictor recomputes the rolling predicted cost of a model at most once per day.
type Predictor struct {
	costs   billingRepo.ModelCostRepository
	history CreditCostHistory
	cache   billingSvc.RateCache
	now     func() time.Time
	logger  *slog.Logger
}

// NewPredictor creates a predictor
func NewPredictor(
	costs billingRepo.ModelCostRepository,
	history CreditCostHistory,
	cache billingSvc.RateCache,
	logger *slog.Logger,
) *Predictor {
	return &Predictor{
		costs:   costs,
		history: history,
		cache:   cache,
		now:     time.Now,
		logger:  logger,
	}
}

// MaybeRecompute refreshes predicted_cost for model unless it was already
// recomputed today. With no billed messages the previous prediction stays.
// Returns true when a new prediction was written.
func (p *Predictor) MaybeRecompute(ctx context.Context, model string) (bool, error) {
	rate, err := p.costs.GetActive(ctx, model)
	if err != nil {
		return false, fmt.Errorf("load rate: %w", err)
	}
	if rate == nil {
		return false, nil
	}

	now := p.now().UTC()
	if rate.PredictedCostDate != nil && sameDay(rate.PredictedCostDate.UTC(), now) {
		return false, nil
	}

	costs, err := p.history.RecentCreditCosts(ctx, model, predictionWindow)
	if err != nil {
		return false, fmt.Errorf("load recent costs: %w", err)
	}

	predicted, ok := PredictCost(costs)
	if !ok {
		p.logger.Debug("no billed messages yet, keeping prediction", "model", model)
		return false, nil
	}

	if err := p.costs.SetPredictedCost(ctx, model, predicted, now); err != nil {
		return false, fmt.Errorf("store prediction: %w", err)
	}
	p.cache.Invalidate(model)

	p.logger.Info("predicted cost recomputed",
		"model", model,
		"predicted_cost", predicted,
		"samples", len(costs),
	)

	return true, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
