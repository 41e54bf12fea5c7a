package billing

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"maimai/internal/config"
	"maimai/internal/domain"
	models "maimai/internal/domain/models/billing"
	billingRepo "maimai/internal/domain/repositories/billing"
	billingSvc "maimai/internal/domain/services/billing"
)

// RateCardService implements billingSvc.RateCardService
type RateCardService struct {
	costs  billingRepo.ModelCostRepository
	rates  billingSvc.RateCache
	config *config.Config
}

// NewRateCardService creates the rate card service
func NewRateCardService(costs billingRepo.ModelCostRepository, rates billingSvc.RateCache, cfg *config.Config) *RateCardService {
	return &RateCardService{costs: costs, rates: rates, config: cfg}
}

var _ billingSvc.RateCardService = (*RateCardService)(nil)

func (s *RateCardService) ListActiveRates(ctx context.Context) ([]models.ModelCost, error) {
	return s.costs.ListActive(ctx)
}

// Estimate mirrors the reservation the message pipeline makes for a text send.
// Unpriced models reserve at least the fallback charge.
func (s *RateCardService) Estimate(ctx context.Context, model, text string) (*billingSvc.Estimate, error) {
	if err := validation.Validate(text,
		validation.Required,
		validation.RuneLength(1, config.MaxMessageLength),
	); err != nil {
		return nil, fmt.Errorf("%w: text: %v", domain.ErrValidation, err)
	}
	if model == "" {
		model = s.config.DefaultModel
	}

	rate, err := s.rates.GetActiveRate(ctx, model)
	if err != nil {
		return nil, err
	}

	estimate := &billingSvc.Estimate{
		Model:         model,
		Characters:    CharacterCount(text),
		EstimatedCost: EstimateMessageCost(text),
		Priced:        rate != nil,
	}
	estimate.Reserved = estimate.EstimatedCost
	if rate == nil {
		estimate.Reserved = max(estimate.Reserved, s.config.FallbackMessageCredits)
	} else {
		estimate.PredictedCost = rate.PredictedCost
	}
	return estimate, nil
}
