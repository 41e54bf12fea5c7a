package billing

import (
	"context"

	"maimai/internal/domain/models/billing"
)

// RateCache resolves the active pricing record for a model.
// Returns (nil, nil) when no active record matches; callers fall back to a
// conservative default instead of charging nothing.
type RateCache interface {
	GetActiveRate(ctx context.Context, model string) (*billing.ModelCost, error)
	Invalidate(model string)
}

// CreditService exposes balance operations
type CreditService interface {
	GetBalance(ctx context.Context, userID string) (int, error)

	// Reserve atomically debits amount if the balance covers it
	Reserve(ctx context.Context, userID string, amount int) (int, error)

	// Refund returns a reservation after a failed send
	Refund(ctx context.Context, userID string, amount int) (int, error)

	// Settle adjusts a reservation to the final charge according to the debit policy.
	// Returns the charged amount and the new balance.
	Settle(ctx context.Context, userID string, reserved, billed int) (charged int, balance int, err error)

	// AddCredits records a purchase
	AddCredits(ctx context.Context, userID string, amount int) (int, error)
}

// DebitPolicy selects which figure is charged for a text message
type DebitPolicy string

const (
	// DebitEstimate charges the character-based estimate reserved up front
	DebitEstimate DebitPolicy = "estimate"
	// DebitBilled charges the token-based billed cost
	DebitBilled DebitPolicy = "billed"
)

// RateCardService exposes the rate card and pre-send estimates to clients
type RateCardService interface {
	ListActiveRates(ctx context.Context) ([]billing.ModelCost, error)

	// Estimate returns what a send of text with model would reserve
	Estimate(ctx context.Context, model, text string) (*Estimate, error)
}

// Estimate is the pre-send quote for a message
type Estimate struct {
	Model         string `json:"model"`
	Characters    int    `json:"characters"`
	EstimatedCost int    `json:"estimated_cost"`
	Reserved      int    `json:"reserved"`
	PredictedCost *int   `json:"predicted_cost,omitempty"`
	Priced        bool   `json:"priced"`
}
