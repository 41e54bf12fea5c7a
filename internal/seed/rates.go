package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	models "maimai/internal/domain/models/billing"
	billingRepo "maimai/internal/domain/repositories/billing"
)

//go:embed model_costs.yaml
var defaultRateCard []byte

// RateCard is the YAML document listing model prices
type RateCard struct {
	Models []RateEntry `yaml:"models"`
}

// RateEntry is one model's pricing
type RateEntry struct {
	Model         string  `yaml:"model"`
	InCost        float64 `yaml:"in_cost"`
	OutCost       float64 `yaml:"out_cost"`
	Markup        float64 `yaml:"markup"`
	PredictedCost *int    `yaml:"predicted_cost,omitempty"`
}

// Validate checks one entry
func (e RateEntry) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Model, validation.Required),
		validation.Field(&e.InCost, validation.Min(0.0)),
		validation.Field(&e.OutCost, validation.Min(0.0)),
		validation.Field(&e.Markup, validation.Required, validation.Min(0.0)),
	)
}

// ParseRateCard decodes and validates a rate card. Duplicate models are rejected.
func ParseRateCard(data []byte) (*RateCard, error) {
	var card RateCard
	if err := yaml.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("parse rate card: %w", err)
	}

	seen := make(map[string]bool, len(card.Models))
	for i, entry := range card.Models {
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("rate card entry %d: %w", i, err)
		}
		if seen[entry.Model] {
			return nil, fmt.Errorf("rate card lists %s twice", entry.Model)
		}
		seen[entry.Model] = true
	}

	return &card, nil
}

// DefaultRateCard returns the embedded rate card
func DefaultRateCard() (*RateCard, error) {
	return ParseRateCard(defaultRateCard)
}

// SeedRates writes every entry as the active rate for its model
func SeedRates(ctx context.Context, repo billingRepo.ModelCostRepository, card *RateCard, logger *slog.Logger) error {
	now := time.Now()
	for _, entry := range card.Models {
		cost := &models.ModelCost{
			Model:         entry.Model,
			InCost:        entry.InCost,
			OutCost:       entry.OutCost,
			Markup:        entry.Markup,
			PredictedCost: entry.PredictedCost,
		}
		if entry.PredictedCost != nil {
			cost.PredictedCostDate = &now
		}
		if err := repo.Upsert(ctx, cost); err != nil {
			return fmt.Errorf("seed %s: %w", entry.Model, err)
		}
		logger.Info("rate seeded", "model", entry.Model, "markup", entry.Markup)
	}
	return nil
}
