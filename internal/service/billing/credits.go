package billing

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"maimai/internal/domain"
	billingRepo "maimai/internal/domain/repositories/billing"
	billingSvc "maimai/internal/domain/services/billing"
)

// creditService implements billingSvc.CreditService
type creditService struct {
	profiles billingRepo.ProfileRepository
	policy   billingSvc.DebitPolicy
	logger   *slog.Logger
}

// NewCreditService creates a credit service with the given debit policy.
// Unknown policies fall back to DebitEstimate.
func NewCreditService(
	profiles billingRepo.ProfileRepository,
	policy billingSvc.DebitPolicy,
	logger *slog.Logger,
) billingSvc.CreditService {
	if policy != billingSvc.DebitBilled {
		policy = billingSvc.DebitEstimate
	}
	return &creditService{
		profiles: profiles,
		policy:   policy,
		logger:   logger,
	}
}

func (s *creditService) GetBalance(ctx context.Context, userID string) (int, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return profile.Credits, nil
}

func (s *creditService) Reserve(ctx context.Context, userID string, amount int) (int, error) {
	if err := validateAmount(amount); err != nil {
		return 0, err
	}
	balance, err := s.profiles.DebitIfSufficient(ctx, userID, amount)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("credits reserved", "user_id", userID, "credits", amount, "balance", balance)
	return balance, nil
}

func (s *creditService) Refund(ctx context.Context, userID string, amount int) (int, error) {
	if err := validateAmount(amount); err != nil {
		return 0, err
	}
	balance, err := s.profiles.Credit(ctx, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("refund credits: %w", err)
	}
	s.logger.Info("credits refunded", "user_id", userID, "credits", amount, "balance", balance)
	return balance, nil
}

// Settle keeps the reservation under DebitEstimate. Under DebitBilled the
// difference is debited (clamped at zero) or credited back.
func (s *creditService) Settle(ctx context.Context, userID string, reserved, billed int) (int, int, error) {
	if s.policy == billingSvc.DebitEstimate || billed == reserved {
		balance, err := s.GetBalance(ctx, userID)
		return reserved, balance, err
	}

	delta := billed - reserved
	var (
		balance int
		err     error
	)
	if delta > 0 {
		balance, err = s.profiles.DebitClamped(ctx, userID, delta)
	} else {
		balance, err = s.profiles.Credit(ctx, userID, -delta)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("settle credits: %w", err)
	}

	s.logger.Debug("credits settled",
		"user_id", userID,
		"reserved", reserved,
		"billed", billed,
		"balance", balance,
	)
	return billed, balance, nil
}

func (s *creditService) AddCredits(ctx context.Context, userID string, amount int) (int, error) {
	if err := validateAmount(amount); err != nil {
		return 0, err
	}
	balance, err := s.profiles.Credit(ctx, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("add credits: %w", err)
	}
	s.logger.Info("credits added", "user_id", userID, "credits", amount, "balance", balance)
	return balance, nil
}

func validateAmount(amount int) error {
	if err := validation.Validate(amount, validation.Required, validation.Min(1)); err != nil {
		return fmt.Errorf("%w: amount %v", domain.ErrValidation, err)
	}
	return nil
}
