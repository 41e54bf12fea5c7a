package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"maimai/internal/domain"
	models "maimai/internal/domain/models/chat"
	chatRepo "maimai/internal/domain/repositories/chat"
	"maimai/internal/repository/postgres"
)

const threadColumns = `id, user_id, project_id, title, system_prompt, hidden, created_at, updated_at`

// PostgresThreadRepository implements chatRepo.ThreadRepository
type PostgresThreadRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewThreadRepository creates a new PostgresThreadRepository
func NewThreadRepository(config *postgres.RepositoryConfig) chatRepo.ThreadRepository {
	return &PostgresThreadRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a thread
func (r *PostgresThreadRepository) Create(ctx context.Context, thread *models.Thread) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, project_id, title, system_prompt, hidden, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, r.tables.Threads)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		thread.UserID,
		thread.ProjectID,
		thread.Title,
		thread.SystemPrompt,
		thread.Hidden,
		thread.CreatedAt,
		thread.UpdatedAt,
	).Scan(&thread.ID, &thread.CreatedAt, &thread.UpdatedAt)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("project does not exist: %w", domain.ErrValidation)
		}
		return fmt.Errorf("create thread: %w", err)
	}

	return nil
}

// GetByID retrieves a thread without its messages
func (r *PostgresThreadRepository) GetByID(ctx context.Context, threadID, userID string) (*models.Thread, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, threadColumns, r.tables.Threads)

	executor := postgres.GetExecutor(ctx, r.pool)
	thread, err := scanThread(executor.QueryRow(ctx, query, threadID, userID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("thread %s: %w", threadID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get thread: %w", err)
	}

	return thread, nil
}

// List retrieves threads newest first
func (r *PostgresThreadRepository) List(ctx context.Context, userID string, opts models.ThreadListOptions) ([]models.Thread, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1
		  AND ($2::uuid IS NULL OR project_id = $2::uuid)
		  AND ($3 OR NOT hidden)
		ORDER BY updated_at DESC
	`, threadColumns, r.tables.Threads)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID, opts.ProjectID, opts.IncludeHidden)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	threads := []models.Thread{}
	for rows.Next() {
		thread, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		threads = append(threads, *thread)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threads: %w", err)
	}

	return threads, nil
}

// Update writes the mutable thread fields
func (r *PostgresThreadRepository) Update(ctx context.Context, thread *models.Thread) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, project_id = $2, system_prompt = $3, hidden = $4, updated_at = $5
		WHERE id = $6 AND user_id = $7
	`, r.tables.Threads)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		thread.Title,
		thread.ProjectID,
		thread.SystemPrompt,
		thread.Hidden,
		thread.UpdatedAt,
		thread.ID,
		thread.UserID,
	)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("project does not exist: %w", domain.ErrValidation)
		}
		return fmt.Errorf("update thread: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("thread %s: %w", thread.ID, domain.ErrNotFound)
	}

	return nil
}

// Touch bumps updated_at
func (r *PostgresThreadRepository) Touch(ctx context.Context, threadID string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET updated_at = $2 WHERE id = $1`, r.tables.Threads)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, threadID, at); err != nil {
		return fmt.Errorf("touch thread: %w", err)
	}
	return nil
}

// AcquireSendLock takes the lease when it is free or expired
func (r *PostgresThreadRepository) AcquireSendLock(ctx context.Context, threadID, userID string, until time.Time) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET send_locked_until = $3
		WHERE id = $1 AND user_id = $2
		  AND (send_locked_until IS NULL OR send_locked_until < $4)
	`, r.tables.Threads)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, threadID, userID, leaseTime(until), time.Now())
	if err != nil {
		return false, fmt.Errorf("acquire send lock: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// ReleaseSendLock clears the lease if it is still the one taken with until
func (r *PostgresThreadRepository) ReleaseSendLock(ctx context.Context, threadID string, until time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s SET send_locked_until = NULL
		WHERE id = $1 AND send_locked_until = $2
	`, r.tables.Threads)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, threadID, leaseTime(until)); err != nil {
		return fmt.Errorf("release send lock: %w", err)
	}
	return nil
}

// leaseTime matches timestamptz precision so the release comparison holds
func leaseTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func scanThread(row pgx.Row) (*models.Thread, error) {
	var thread models.Thread
	err := row.Scan(
		&thread.ID,
		&thread.UserID,
		&thread.ProjectID,
		&thread.Title,
		&thread.SystemPrompt,
		&thread.Hidden,
		&thread.CreatedAt,
		&thread.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &thread, nil
}
