package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"maimai/internal/domain"
	models "maimai/internal/domain/models/chat"
	chatRepo "maimai/internal/domain/repositories/chat"
	"maimai/internal/repository/postgres"
)

const messageColumns = `m.id, m.thread_id, m.role, m.content, m.model, m.input_tokens, m.output_tokens,
	m.credit_cost, m.ten_x_cost, m.summary, m.key_information, m.created_at`

// PostgresMessageRepository implements chatRepo.MessageRepository
type PostgresMessageRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewMessageRepository creates a new PostgresMessageRepository
func NewMessageRepository(config *postgres.RepositoryConfig) chatRepo.MessageRepository {
	return &PostgresMessageRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a message. credit_cost is written once here and never updated.
func (r *PostgresMessageRepository) Create(ctx context.Context, message *models.Message) error {
	keyInfo, err := marshalKeyInformation(message.KeyInformation)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (thread_id, role, content, model, input_tokens, output_tokens,
			credit_cost, ten_x_cost, summary, key_information, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11, now()))
		RETURNING id, created_at
	`, r.tables.Messages)

	var createdAt interface{}
	if !message.CreatedAt.IsZero() {
		createdAt = message.CreatedAt
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query,
		message.ThreadID,
		message.Role,
		message.Content,
		message.Model,
		message.InputTokens,
		message.OutputTokens,
		message.CreditCost,
		message.TenXCost,
		message.Summary,
		keyInfo,
		createdAt,
	).Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("thread %s: %w", message.ThreadID, domain.ErrNotFound)
		}
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

// ListByThread returns messages oldest first
func (r *PostgresMessageRepository) ListByThread(ctx context.Context, threadID string) ([]models.Message, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s m
		WHERE m.thread_id = $1
		ORDER BY m.created_at ASC, m.id ASC
	`, messageColumns, r.tables.Messages)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// GetByID retrieves a message owned (through its thread) by userID
func (r *PostgresMessageRepository) GetByID(ctx context.Context, messageID, userID string) (*models.Message, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s m
		JOIN %s t ON t.id = m.thread_id
		WHERE m.id = $1 AND t.user_id = $2
	`, messageColumns, r.tables.Messages, r.tables.Threads)

	executor := postgres.GetExecutor(ctx, r.pool)
	message, err := scanMessage(executor.QueryRow(ctx, query, messageID, userID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get message: %w", err)
	}

	return message, nil
}

// UpdateSummary attaches a summary
func (r *PostgresMessageRepository) UpdateSummary(ctx context.Context, messageID, summary string) error {
	query := fmt.Sprintf(`UPDATE %s SET summary = $2 WHERE id = $1`, r.tables.Messages)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, messageID, summary)
	if err != nil {
		return fmt.Errorf("update summary: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
	}
	return nil
}

// RecentCreditCosts returns the newest assistant credit costs for a model
func (r *PostgresMessageRepository) RecentCreditCosts(ctx context.Context, model string, limit int) ([]int, error) {
	query := fmt.Sprintf(`
		SELECT credit_cost
		FROM %s
		WHERE role = 'assistant' AND model = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, r.tables.Messages)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, model, limit)
	if err != nil {
		return nil, fmt.Errorf("recent credit costs: %w", err)
	}

	costs, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("collect credit costs: %w", err)
	}
	return costs, nil
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var (
		message models.Message
		keyInfo []byte
	)
	err := row.Scan(
		&message.ID,
		&message.ThreadID,
		&message.Role,
		&message.Content,
		&message.Model,
		&message.InputTokens,
		&message.OutputTokens,
		&message.CreditCost,
		&message.TenXCost,
		&message.Summary,
		&keyInfo,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(keyInfo) > 0 {
		var info models.KeyInformation
		if err := json.Unmarshal(keyInfo, &info); err != nil {
			return nil, fmt.Errorf("decode key_information: %w", err)
		}
		message.KeyInformation = &info
	}

	return &message, nil
}

// marshalKeyInformation returns nil for an absent extraction so the column stays NULL
func marshalKeyInformation(info *models.KeyInformation) ([]byte, error) {
	if info.IsEmpty() {
		return nil, nil
	}
	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("encode key_information: %w", err)
	}
	return data, nil
}
