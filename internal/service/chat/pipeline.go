package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"

	"maimai/internal/config"
	"maimai/internal/domain"
	billingModels "maimai/internal/domain/models/billing"
	"maimai/internal/domain/models/chat"
	"maimai/internal/domain/repositories"
	chatRepo "maimai/internal/domain/repositories/chat"
	billingSvc "maimai/internal/domain/services/billing"
	chatSvc "maimai/internal/domain/services/chat"
	llmSvc "maimai/internal/domain/services/llm"
	"maimai/internal/service/billing"
)

// predictionTimeout bounds the detached predicted-cost recompute
const predictionTimeout = 30 * time.Second

// CostPredictor recomputes a model's rolling predicted cost
type CostPredictor interface {
	MaybeRecompute(ctx context.Context, model string) (bool, error)
}

// Providers are the AI backends used by the pipeline
type Providers struct {
	Completion llmSvc.CompletionProvider
	Summarizer llmSvc.Summarizer
	KeyInfo    llmSvc.KeyInfoExtractor
	Images     llmSvc.ImageGenerator
}

// MessageService implements chatSvc.MessageService.
//
// A send moves through balance-check, appending, summarizing,
// awaiting-completion, persisting and debiting. Any failure after the
// reservation refunds it; the user message already appended is kept.
type MessageService struct {
	threadRepo  chatRepo.ThreadRepository
	messageRepo chatRepo.MessageRepository
	projectRepo chatRepo.ProjectRepository
	txManager   repositories.TransactionManager
	credits     billingSvc.CreditService
	rates       billingSvc.RateCache
	predictor   CostPredictor
	providers   Providers
	classifier  chatSvc.IntentClassifier
	config      *config.Config
	logger      *slog.Logger

	now         func() time.Time
	runDetached func(fn func())
}

// NewMessageService creates the message pipeline
func NewMessageService(
	threadRepo chatRepo.ThreadRepository,
	messageRepo chatRepo.MessageRepository,
	projectRepo chatRepo.ProjectRepository,
	txManager repositories.TransactionManager,
	credits billingSvc.CreditService,
	rates billingSvc.RateCache,
	predictor CostPredictor,
	providers Providers,
	classifier chatSvc.IntentClassifier,
	cfg *config.Config,
	logger *slog.Logger,
) *MessageService {
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	return &MessageService{
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
		projectRepo: projectRepo,
		txManager:   txManager,
		credits:     credits,
		rates:       rates,
		predictor:   predictor,
		providers:   providers,
		classifier:  classifier,
		config:      cfg,
		logger:      logger,
		now:         time.Now,
		runDetached: func(fn func()) { go fn() },
	}
}

var _ chatSvc.MessageService = (*MessageService)(nil)

// sendPlan is what the balance-check step decided
type sendPlan struct {
	model    string
	image    bool
	rate     *billingModels.ModelCost // nil when the model has no active rate
	reserved int

	// balance right after the reservation
	reservedBalance int
}

// SendMessage runs one send through the pipeline
func (s *MessageService) SendMessage(ctx context.Context, req *chatSvc.SendMessageRequest) (*chatSvc.SendMessageResult, error) {
	if err := s.validateSendRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	intent := s.classifier.ClassifyIntent(req.Content)
	wantsImage := intent == chatSvc.IntentImage && req.ImageConfirmed != nil && *req.ImageConfirmed

	if intent == chatSvc.IntentImage && req.ImageConfirmed == nil {
		return s.confirmationResult(ctx, req.UserID)
	}

	thread, project, err := s.loadContext(ctx, req)
	if err != nil {
		return nil, err
	}

	if thread != nil {
		release, err := s.acquireSendLock(ctx, thread.ID, req.UserID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	plan, err := s.plan(ctx, req, wantsImage)
	if err != nil {
		return nil, err
	}

	// balance-check and debit are one conditional decrement
	plan.reservedBalance, err = s.credits.Reserve(ctx, req.UserID, plan.reserved)
	if err != nil {
		return nil, err
	}

	result, err := s.run(ctx, req, plan, thread, project)
	if err != nil {
		s.refund(ctx, req.UserID, plan.reserved)
		return nil, err
	}
	return result, nil
}

// run covers every step after the reservation
func (s *MessageService) run(
	ctx context.Context,
	req *chatSvc.SendMessageRequest,
	plan *sendPlan,
	thread *chat.Thread,
	project *chat.Project,
) (*chatSvc.SendMessageResult, error) {
	if thread == nil {
		created, err := s.startThread(ctx, req)
		if err != nil {
			return nil, err
		}
		thread = created

		release, err := s.acquireSendLock(ctx, thread.ID, req.UserID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	// appending
	userMsg := &chat.Message{
		ThreadID:  thread.ID,
		Role:      chat.RoleUser,
		Content:   req.Content,
		CreatedAt: s.now(),
	}
	if err := s.messageRepo.Create(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}

	// summarizing (best-effort)
	if !plan.image {
		s.summarizeUserMessage(ctx, userMsg)
	}

	// awaiting-completion
	var assistant *chat.Message
	var err error
	if plan.image {
		assistant, err = s.generateImage(ctx, req.Content, thread.ID, plan)
	} else {
		assistant, err = s.complete(ctx, thread, project, plan)
	}
	if err != nil {
		s.logger.Warn("send failed",
			"thread_id", thread.ID,
			"user_id", req.UserID,
			"model", plan.model,
			"error", err,
		)
		return nil, err
	}

	// persisting
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.messageRepo.Create(txCtx, assistant); err != nil {
			return fmt.Errorf("save assistant message: %w", err)
		}
		return s.threadRepo.Touch(txCtx, thread.ID, assistant.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	thread.UpdatedAt = assistant.CreatedAt

	// debiting
	charged, balance, err := s.credits.Settle(ctx, req.UserID, plan.reserved, assistant.CreditCost)
	if err != nil {
		// the reservation stands as the charge
		s.logger.Error("credit settlement failed",
			"user_id", req.UserID,
			"reserved", plan.reserved,
			"billed", assistant.CreditCost,
			"error", err,
		)
		charged = plan.reserved
		balance, err = s.credits.GetBalance(ctx, req.UserID)
		if err != nil {
			s.logger.Warn("balance lookup failed after settlement error",
				"user_id", req.UserID,
				"error", err,
			)
			balance = plan.reservedBalance
		}
	}

	if !plan.image && plan.rate != nil {
		s.schedulePrediction(plan.model)
	}

	s.logger.Info("message sent",
		"thread_id", thread.ID,
		"user_id", req.UserID,
		"model", plan.model,
		"reserved", plan.reserved,
		"billed", assistant.CreditCost,
		"credits", charged,
	)

	return &chatSvc.SendMessageResult{
		Thread:           thread,
		UserMessage:      userMsg,
		AssistantMessage: assistant,
		EstimatedCost:    plan.reserved,
		ChargedCredits:   charged,
		Balance:          balance,
	}, nil
}

// confirmationResult asks the caller to confirm an image request.
// Nothing is persisted or charged.
func (s *MessageService) confirmationResult(ctx context.Context, userID string) (*chatSvc.SendMessageResult, error) {
	rate, err := s.rates.GetActiveRate(ctx, billingModels.ImageModel)
	if err != nil {
		return nil, err
	}
	balance, err := s.credits.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &chatSvc.SendMessageResult{
		RequiresConfirmation: true,
		EstimatedCost:        billing.ImageCost(rate),
		Balance:              balance,
	}, nil
}

// loadContext resolves the thread (nil for a new one) and its project
func (s *MessageService) loadContext(ctx context.Context, req *chatSvc.SendMessageRequest) (*chat.Thread, *chat.Project, error) {
	var thread *chat.Thread
	projectID := req.ProjectID

	if req.ThreadID != "" {
		t, err := s.threadRepo.GetByID(ctx, req.ThreadID, req.UserID)
		if err != nil {
			return nil, nil, err
		}
		thread = t
		projectID = t.ProjectID
	}

	if projectID == nil || *projectID == "" {
		return thread, nil, nil
	}

	project, err := s.projectRepo.GetByID(ctx, *projectID, req.UserID)
	if err != nil {
		return nil, nil, err
	}
	return thread, project, nil
}

// plan decides the model and the amount to reserve
func (s *MessageService) plan(ctx context.Context, req *chatSvc.SendMessageRequest, image bool) (*sendPlan, error) {
	if image {
		rate, err := s.rates.GetActiveRate(ctx, billingModels.ImageModel)
		if err != nil {
			return nil, err
		}
		return &sendPlan{
			model:    billingModels.ImageModel,
			image:    true,
			rate:     rate,
			reserved: billing.ImageCost(rate),
		}, nil
	}

	model := req.Model
	if model == "" {
		model = s.config.DefaultModel
	}

	rate, err := s.rates.GetActiveRate(ctx, model)
	if err != nil {
		return nil, err
	}

	reserved := billing.EstimateMessageCost(req.Content)
	if rate == nil {
		s.logger.Warn("no active rate, using fallback charge", "model", model)
		reserved = max(reserved, s.config.FallbackMessageCredits)
	}

	return &sendPlan{
		model:    model,
		rate:     rate,
		reserved: reserved,
	}, nil
}

func (s *MessageService) startThread(ctx context.Context, req *chatSvc.SendMessageRequest) (*chat.Thread, error) {
	now := s.now()
	thread := &chat.Thread{
		UserID:    req.UserID,
		ProjectID: req.ProjectID,
		Title:     autoTitle(req.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.threadRepo.Create(ctx, thread); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}

	s.logger.Info("thread created",
		"thread_id", thread.ID,
		"user_id", req.UserID,
	)
	return thread, nil
}

func (s *MessageService) acquireSendLock(ctx context.Context, threadID, userID string) (func(), error) {
	until := time.Now().Add(s.config.SendLockTTL)
	ok, err := s.threadRepo.AcquireSendLock(ctx, threadID, userID, until)
	if err != nil {
		return nil, fmt.Errorf("acquire send lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrSendInProgress
	}

	return func() {
		if err := s.threadRepo.ReleaseSendLock(context.WithoutCancel(ctx), threadID, until); err != nil {
			s.logger.Error("failed to release send lock", "thread_id", threadID, "error", err)
		}
	}, nil
}

func (s *MessageService) summarizeUserMessage(ctx context.Context, msg *chat.Message) {
	summary, err := s.providers.Summarizer.Summarize(ctx, msg.Content, msg.Role)
	if err != nil || summary == "" {
		s.logger.Warn("summary unavailable, using full content", "message_id", msg.ID, "error", err)
		return
	}
	if err := s.messageRepo.UpdateSummary(ctx, msg.ID, summary); err != nil {
		s.logger.Warn("failed to store summary", "message_id", msg.ID, "error", err)
		return
	}
	msg.Summary = &summary
}

// complete dispatches the optimized history and builds the assistant message
func (s *MessageService) complete(ctx context.Context, thread *chat.Thread, project *chat.Project, plan *sendPlan) (*chat.Message, error) {
	history, err := s.messageRepo.ListByThread(ctx, thread.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	resp, err := s.providers.Completion.Complete(ctx, &llmSvc.CompletionRequest{
		Model:    plan.model,
		Messages: buildPayload(OptimizeHistory(history), ResolveSystemPrompt(project, thread)),
	})
	if err != nil {
		return nil, err
	}

	model := plan.model
	assistant := &chat.Message{
		ThreadID:     thread.ID,
		Role:         chat.RoleAssistant,
		Content:      resp.Content,
		Model:        &model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		CreditCost:   plan.reserved,
	}
	if plan.rate != nil {
		assistant.CreditCost = billing.ComputeBilledCost(resp.InputTokens, resp.OutputTokens, plan.rate)
		assistant.TenXCost = billing.TenXCost(resp.InputTokens, resp.OutputTokens, plan.rate)
	}

	s.enrich(ctx, assistant)
	assistant.CreatedAt = s.now()

	return assistant, nil
}

// enrich attaches a summary and key information. Both are advisory.
func (s *MessageService) enrich(ctx context.Context, msg *chat.Message) {
	var (
		summary string
		info    *chat.KeyInformation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := s.providers.Summarizer.Summarize(gctx, msg.Content, msg.Role)
		if err != nil {
			s.logger.Warn("assistant summary unavailable", "thread_id", msg.ThreadID, "error", err)
			return nil
		}
		summary = out
		return nil
	})
	g.Go(func() error {
		raw, err := s.providers.KeyInfo.ExtractKeyInformation(gctx, msg.Content)
		if err != nil {
			s.logger.Warn("key information unavailable", "thread_id", msg.ThreadID, "error", err)
			return nil
		}
		parsed, err := ParseKeyInformation(raw)
		if err != nil {
			s.logger.Warn("discarding malformed key information", "thread_id", msg.ThreadID, "error", err)
			return nil
		}
		info = parsed
		return nil
	})
	_ = g.Wait() // both goroutines swallow their errors

	if summary != "" {
		msg.Summary = &summary
	}
	msg.KeyInformation = info
}

func (s *MessageService) generateImage(ctx context.Context, prompt, threadID string, plan *sendPlan) (*chat.Message, error) {
	img, err := s.providers.Images.GenerateImage(ctx, prompt)
	if err != nil {
		return nil, err
	}

	model := billingModels.ImageModel
	return &chat.Message{
		ThreadID:   threadID,
		Role:       chat.RoleAssistant,
		Content:    fmt.Sprintf("![%s](%s)", imageAltText(prompt), img.URL),
		Model:      &model,
		CreditCost: plan.reserved,
		CreatedAt:  s.now(),
	}, nil
}

func (s *MessageService) refund(ctx context.Context, userID string, amount int) {
	if _, err := s.credits.Refund(context.WithoutCancel(ctx), userID, amount); err != nil {
		s.logger.Error("failed to refund reservation",
			"user_id", userID,
			"credits", amount,
			"error", err,
		)
	}
}

func (s *MessageService) schedulePrediction(model string) {
	if s.predictor == nil {
		return
	}
	s.runDetached(func() {
		ctx, cancel := context.WithTimeout(context.Background(), predictionTimeout)
		defer cancel()
		if _, err := s.predictor.MaybeRecompute(ctx, model); err != nil {
			s.logger.Warn("predicted cost recompute failed", "model", model, "error", err)
		}
	})
}

func (s *MessageService) validateSendRequest(req *chatSvc.SendMessageRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Content,
			validation.Required,
			validation.RuneLength(1, config.MaxMessageLength),
		),
	)
}

// buildPayload prepends the system prompt and converts history to provider messages
func buildPayload(history []chat.Message, systemPrompt string) []llmSvc.Message {
	payload := make([]llmSvc.Message, 0, len(history)+1)
	if systemPrompt != "" {
		payload = append(payload, llmSvc.Message{Role: chat.RoleSystem, Content: systemPrompt})
	}
	for _, m := range history {
		payload = append(payload, llmSvc.Message{Role: m.Role, Content: m.Content})
	}
	return payload
}

// autoTitle uses the start of the first message as the thread title
func autoTitle(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(title) > config.AutoTitleLength {
		title = string([]rune(title)[:config.AutoTitleLength])
	}
	if title == "" {
		return "New thread"
	}
	return title
}

func imageAltText(prompt string) string {
	alt := strings.NewReplacer("[", "", "]", "", "\n", " ").Replace(strings.TrimSpace(prompt))
	if utf8.RuneCountInString(alt) > 100 {
		alt = string([]rune(alt)[:100])
	}
	return alt
}
