package social

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	models "maimai/internal/domain/models/social"
	socialRepo "maimai/internal/domain/repositories/social"
	"maimai/internal/repository/postgres"
)

// PostgresPostRepository implements socialRepo.PostRepository
type PostgresPostRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewPostRepository creates a new PostgresPostRepository
func NewPostRepository(config *postgres.RepositoryConfig) socialRepo.PostRepository {
	return &PostgresPostRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create records a published post
func (r *PostgresPostRepository) Create(ctx context.Context, post *models.Post) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, page_id, remote_post_id, message_id, content, link, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, r.tables.SocialPosts)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		post.UserID,
		post.PageID,
		post.RemotePostID,
		post.MessageID,
		post.Content,
		post.Link,
		post.CreatedAt,
	).Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return fmt.Errorf("create social post: %w", err)
	}

	return nil
}

// List returns the newest posts first
func (r *PostgresPostRepository) List(ctx context.Context, userID string, limit int) ([]models.Post, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, page_id, remote_post_id, message_id, content, link, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, r.tables.SocialPosts)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list social posts: %w", err)
	}

	posts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Post, error) {
		var p models.Post
		err := row.Scan(&p.ID, &p.UserID, &p.PageID, &p.RemotePostID, &p.MessageID, &p.Content, &p.Link, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan social posts: %w", err)
	}

	return posts, nil
}
