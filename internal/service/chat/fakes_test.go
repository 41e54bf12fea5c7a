package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"maimai/internal/config"
	"maimai/internal/domain"
	billingModels "maimai/internal/domain/models/billing"
	"maimai/internal/domain/models/chat"
	"maimai/internal/domain/repositories"
	llmSvc "maimai/internal/domain/services/llm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultModel:           "gpt-4o-mini",
		FallbackMessageCredits: 5,
		SendLockTTL:            time.Minute,
	}
}

// store backs every fake repository so assertions can inspect state
type store struct {
	mu       sync.Mutex
	seq      int
	threads  map[string]*chat.Thread
	messages []chat.Message
	projects map[string]*chat.Project
	locks    map[string]time.Time
	touched  map[string]time.Time
}

func newStore() *store {
	return &store{
		threads:  map[string]*chat.Thread{},
		projects: map[string]*chat.Project{},
		locks:    map[string]time.Time{},
		touched:  map[string]time.Time{},
	}
}

func (s *store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

type fakeThreadRepo struct{ s *store }

func (r *fakeThreadRepo) Create(_ context.Context, thread *chat.Thread) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	thread.ID = r.s.nextID("thread")
	cp := *thread
	r.s.threads[thread.ID] = &cp
	return nil
}

func (r *fakeThreadRepo) GetByID(_ context.Context, threadID, userID string) (*chat.Thread, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.threads[threadID]
	if !ok || t.UserID != userID {
		return nil, fmt.Errorf("thread %s: %w", threadID, domain.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (r *fakeThreadRepo) List(_ context.Context, userID string, opts chat.ThreadListOptions) ([]chat.Thread, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []chat.Thread
	for _, t := range r.s.threads {
		if t.UserID != userID || (t.Hidden && !opts.IncludeHidden) {
			continue
		}
		if opts.ProjectID != nil && (t.ProjectID == nil || *t.ProjectID != *opts.ProjectID) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeThreadRepo) Update(_ context.Context, thread *chat.Thread) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.threads[thread.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *thread
	r.s.threads[thread.ID] = &cp
	return nil
}

func (r *fakeThreadRepo) Touch(_ context.Context, threadID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.touched[threadID] = at
	return nil
}

func (r *fakeThreadRepo) AcquireSendLock(_ context.Context, threadID, _ string, until time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if held, ok := r.s.locks[threadID]; ok && held.After(time.Now()) {
		return false, nil
	}
	r.s.locks[threadID] = until
	return true, nil
}

func (r *fakeThreadRepo) ReleaseSendLock(_ context.Context, threadID string, until time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if held, ok := r.s.locks[threadID]; ok && held.Equal(until) {
		delete(r.s.locks, threadID)
	}
	return nil
}

type fakeMessageRepo struct{ s *store }

func (r *fakeMessageRepo) Create(_ context.Context, message *chat.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	message.ID = r.s.nextID("msg")
	r.s.messages = append(r.s.messages, *message)
	return nil
}

func (r *fakeMessageRepo) ListByThread(_ context.Context, threadID string) ([]chat.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []chat.Message
	for _, m := range r.s.messages {
		if m.ThreadID == threadID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, messageID, _ string) (*chat.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.messages {
		if m.ID == messageID {
			cp := m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeMessageRepo) UpdateSummary(_ context.Context, messageID, summary string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.messages {
		if r.s.messages[i].ID == messageID {
			s := summary
			r.s.messages[i].Summary = &s
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeMessageRepo) RecentCreditCosts(_ context.Context, model string, limit int) ([]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []int
	for i := len(r.s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		m := r.s.messages[i]
		if m.Model != nil && *m.Model == model {
			out = append(out, m.CreditCost)
		}
	}
	return out, nil
}

type fakeProjectRepo struct{ s *store }

func (r *fakeProjectRepo) Create(_ context.Context, project *chat.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	project.ID = r.s.nextID("project")
	cp := *project
	r.s.projects[project.ID] = &cp
	return nil
}

func (r *fakeProjectRepo) GetByID(_ context.Context, id, userID string) (*chat.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok || p.UserID != userID {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProjectRepo) List(_ context.Context, userID string) ([]chat.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []chat.Project
	for _, p := range r.s.projects {
		if p.UserID == userID && !p.Hidden {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProjectRepo) Update(_ context.Context, project *chat.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *project
	r.s.projects[project.ID] = &cp
	return nil
}

// passthroughTx runs fn without a real transaction
type passthroughTx struct{}

func (passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error { return fn(ctx) }

// fakeCredits is an in-memory CreditService
type fakeCredits struct {
	mu       sync.Mutex
	balance  int
	reserves []int
	refunds  []int

	settleErr  error
	balanceErr error
}

func (c *fakeCredits) GetBalance(context.Context, string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.balanceErr != nil {
		return 0, c.balanceErr
	}
	return c.balance, nil
}

func (c *fakeCredits) Reserve(_ context.Context, _ string, amount int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.balance < amount {
		return 0, &domain.InsufficientCreditsError{Balance: c.balance, Required: amount}
	}
	c.balance -= amount
	c.reserves = append(c.reserves, amount)
	return c.balance, nil
}

func (c *fakeCredits) Refund(_ context.Context, _ string, amount int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balance += amount
	c.refunds = append(c.refunds, amount)
	return c.balance, nil
}

func (c *fakeCredits) Settle(_ context.Context, _ string, reserved, _ int) (int, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settleErr != nil {
		return 0, 0, c.settleErr
	}
	return reserved, c.balance, nil
}

func (c *fakeCredits) AddCredits(_ context.Context, _ string, amount int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balance += amount
	return c.balance, nil
}

type fakeRates struct {
	rates map[string]*billingModels.ModelCost
}

func (r *fakeRates) GetActiveRate(_ context.Context, model string) (*billingModels.ModelCost, error) {
	rate, ok := r.rates[model]
	if !ok {
		return nil, nil
	}
	cp := *rate
	return &cp, nil
}

func (r *fakeRates) Invalidate(string) {}

type fakePredictor struct {
	mu     sync.Mutex
	models []string
}

func (p *fakePredictor) MaybeRecompute(_ context.Context, model string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.models = append(p.models, model)
	return true, nil
}

// fakeAI implements every provider interface used by the pipeline
type fakeAI struct {
	mu           sync.Mutex
	completeErr  error
	keyInfo      string
	summaryErr   error
	imageURL     string
	lastRequest  *llmSvc.CompletionRequest
	completions  int
	images       int
	inputTokens  int
	outputTokens int
}

func (f *fakeAI) Complete(_ context.Context, req *llmSvc.CompletionRequest) (*llmSvc.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completions++
	f.lastRequest = req
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return &llmSvc.CompletionResponse{
		Content:      "Paris is the capital of France.",
		Model:        req.Model,
		InputTokens:  f.inputTokens,
		OutputTokens: f.outputTokens,
	}, nil
}

func (f *fakeAI) Name() string              { return "fake" }
func (f *fakeAI) SupportsModel(string) bool { return true }

func (f *fakeAI) Summarize(_ context.Context, content, _ string) (string, error) {
	if f.summaryErr != nil {
		return "", f.summaryErr
	}
	return "summary: " + content[:min(len(content), 10)], nil
}

func (f *fakeAI) ExtractKeyInformation(context.Context, string) (string, error) {
	if f.keyInfo == "" {
		return "", errors.New("extraction unavailable")
	}
	return f.keyInfo, nil
}

func (f *fakeAI) GenerateImage(_ context.Context, _ string) (*llmSvc.ImageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images++
	return &llmSvc.ImageResponse{URL: f.imageURL, Model: "dall-e-3"}, nil
}
