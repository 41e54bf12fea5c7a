package billing

import (
	"context"
	"time"

	"maimai/internal/domain/models/billing"
)

// ModelCostReader is the read side used by rate caches
type ModelCostReader interface {
	// GetActive returns the active pricing record for a model.
	// Returns (nil, nil) when no active record exists.
	GetActive(ctx context.Context, model string) (*billing.ModelCost, error)
}

// ModelCostRepository defines data access for the rate card
type ModelCostRepository interface {
	ModelCostReader

	// ListActive returns every active pricing record ordered by model
	ListActive(ctx context.Context) ([]billing.ModelCost, error)

	// Upsert replaces the active record for cost.Model (previous one is deactivated)
	Upsert(ctx context.Context, cost *billing.ModelCost) error

	// SetPredictedCost stores a recomputed prediction on the active record
	SetPredictedCost(ctx context.Context, model string, predicted int, at time.Time) error
}
