package billing

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"maimai/internal/domain"
	models "maimai/internal/domain/models/billing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCostRepo struct {
	mu        sync.Mutex
	rates     map[string]*models.ModelCost
	reads     int
	predicted map[string]int
}

func newFakeCostRepo(rates ...*models.ModelCost) *fakeCostRepo {
	r := &fakeCostRepo{rates: map[string]*models.ModelCost{}, predicted: map[string]int{}}
	for _, rate := range rates {
		r.rates[rate.Model] = rate
	}
	return r
}

func (r *fakeCostRepo) GetActive(_ context.Context, model string) (*models.ModelCost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	rate, ok := r.rates[model]
	if !ok {
		return nil, nil
	}
	cp := *rate
	return &cp, nil
}

func (r *fakeCostRepo) ListActive(context.Context) ([]models.ModelCost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ModelCost, 0, len(r.rates))
	for _, rate := range r.rates {
		out = append(out, *rate)
	}
	return out, nil
}

func (r *fakeCostRepo) Upsert(_ context.Context, cost *models.ModelCost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *cost
	r.rates[cost.Model] = &cp
	return nil
}

func (r *fakeCostRepo) SetPredictedCost(_ context.Context, model string, predicted int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rate, ok := r.rates[model]
	if !ok {
		return domain.ErrNotFound
	}
	rate.PredictedCost = &predicted
	rate.PredictedCostDate = &at
	r.predicted[model] = predicted
	return nil
}

type fakeHistory struct {
	costs []int
	calls int
}

func (h *fakeHistory) RecentCreditCosts(_ context.Context, _ string, limit int) ([]int, error) {
	h.calls++
	if len(h.costs) > limit {
		return h.costs[:limit], nil
	}
	return h.costs, nil
}

type fakeProfiles struct {
	mu       sync.Mutex
	balances map[string]int
}

func newFakeProfiles(balances map[string]int) *fakeProfiles {
	return &fakeProfiles{balances: balances}
}

func (p *fakeProfiles) Get(_ context.Context, userID string) (*models.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &models.Profile{UserID: userID, Credits: p.balances[userID]}, nil
}

func (p *fakeProfiles) DebitIfSufficient(_ context.Context, userID string, amount int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.balances[userID] < amount {
		return 0, &domain.InsufficientCreditsError{Balance: p.balances[userID], Required: amount}
	}
	p.balances[userID] -= amount
	return p.balances[userID], nil
}

func (p *fakeProfiles) Credit(_ context.Context, userID string, amount int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[userID] += amount
	return p.balances[userID], nil
}

func (p *fakeProfiles) DebitClamped(_ context.Context, userID string, amount int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[userID] -= amount
	if p.balances[userID] < 0 {
		p.balances[userID] = 0
	}
	return p.balances[userID], nil
}
