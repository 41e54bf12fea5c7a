package billing

import (
	"context"
	"errors"
	"testing"

	"maimai/internal/domain"
	billingSvc "maimai/internal/domain/services/billing"
)

func TestCreditService_ReserveRejectsShortBalance(t *testing.T) {
	profiles := newFakeProfiles(map[string]int{"u1": 3})
	svc := NewCreditService(profiles, billingSvc.DebitEstimate, discardLogger())

	_, err := svc.Reserve(context.Background(), "u1", 5)
	if !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	var ice *domain.InsufficientCreditsError
	if !errors.As(err, &ice) || ice.Balance != 3 || ice.Required != 5 {
		t.Errorf("unexpected error detail: %+v", ice)
	}
	if profiles.balances["u1"] != 3 {
		t.Errorf("balance changed to %d", profiles.balances["u1"])
	}
}

func TestCreditService_ReserveAndRefund(t *testing.T) {
	profiles := newFakeProfiles(map[string]int{"u1": 10})
	svc := NewCreditService(profiles, billingSvc.DebitEstimate, discardLogger())
	ctx := context.Background()

	balance, err := svc.Reserve(ctx, "u1", 4)
	if err != nil || balance != 6 {
		t.Fatalf("Reserve = %d, %v", balance, err)
	}
	balance, err = svc.Refund(ctx, "u1", 4)
	if err != nil || balance != 10 {
		t.Fatalf("Refund = %d, %v", balance, err)
	}
}

func TestCreditService_Settle(t *testing.T) {
	tests := []struct {
		name        string
		policy      billingSvc.DebitPolicy
		start       int
		reserved    int
		billed      int
		wantCharged int
		wantBalance int
	}{
		{"estimate keeps reservation", billingSvc.DebitEstimate, 10, 3, 8, 3, 7},
		{"billed debits the difference", billingSvc.DebitBilled, 10, 3, 5, 5, 5},
		{"billed refunds overestimate", billingSvc.DebitBilled, 10, 6, 2, 2, 8},
		{"billed clamps at zero", billingSvc.DebitBilled, 4, 3, 10, 10, 0},
		{"unknown policy behaves like estimate", billingSvc.DebitPolicy("bogus"), 10, 3, 8, 3, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := newFakeProfiles(map[string]int{"u1": tt.start})
			svc := NewCreditService(profiles, tt.policy, discardLogger())
			ctx := context.Background()

			if _, err := svc.Reserve(ctx, "u1", tt.reserved); err != nil {
				t.Fatalf("Reserve: %v", err)
			}
			charged, balance, err := svc.Settle(ctx, "u1", tt.reserved, tt.billed)
			if err != nil {
				t.Fatalf("Settle: %v", err)
			}
			if charged != tt.wantCharged {
				t.Errorf("charged = %d, want %d", charged, tt.wantCharged)
			}
			if balance != tt.wantBalance {
				t.Errorf("balance = %d, want %d", balance, tt.wantBalance)
			}
		})
	}
}

func TestCreditService_AddCreditsValidation(t *testing.T) {
	svc := NewCreditService(newFakeProfiles(map[string]int{}), billingSvc.DebitEstimate, discardLogger())

	for _, amount := range []int{0, -5} {
		if _, err := svc.AddCredits(context.Background(), "u1", amount); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("amount %d: expected ErrValidation, got %v", amount, err)
		}
	}

	balance, err := svc.AddCredits(context.Background(), "u1", 25)
	if err != nil || balance != 25 {
		t.Errorf("AddCredits = %d, %v", balance, err)
	}
}
