package billing

import (
	"context"

	"maimai/internal/domain/models/billing"
)

// ProfileRepository defines data access for credit balances
type ProfileRepository interface {
	// Get returns the user's profile, creating an empty one if missing
	Get(ctx context.Context, userID string) (*billing.Profile, error)

	// DebitIfSufficient atomically subtracts amount when the balance covers it.
	// Returns *domain.InsufficientCreditsError (balance unchanged) otherwise.
	DebitIfSufficient(ctx context.Context, userID string, amount int) (int, error)

	// Credit adds amount and returns the new balance
	Credit(ctx context.Context, userID string, amount int) (int, error)

	// DebitClamped subtracts amount without letting the balance drop below zero
	DebitClamped(ctx context.Context, userID string, amount int) (int, error)
}
