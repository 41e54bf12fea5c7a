package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"maimai/internal/domain"
	models "maimai/internal/domain/models/feed"
	feedRepo "maimai/internal/domain/repositories/feed"
	"maimai/internal/repository/postgres"
)

// PostgresFeedRepository implements feedRepo.FeedRepository
type PostgresFeedRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewFeedRepository creates a new PostgresFeedRepository
func NewFeedRepository(config *postgres.RepositoryConfig) feedRepo.FeedRepository {
	return &PostgresFeedRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create subscribes the user to a feed url
func (r *PostgresFeedRepository) Create(ctx context.Context, f *models.Feed) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, url, title, last_fetched_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, r.tables.Feeds)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		f.UserID,
		f.URL,
		f.Title,
		f.LastFetchedAt,
		f.CreatedAt,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			existingID, queryErr := r.getExistingFeedID(ctx, f.UserID, f.URL)
			if queryErr != nil {
				return fmt.Errorf("feed '%s' already exists: %w", f.URL, domain.ErrConflict)
			}
			return &domain.ConflictError{
				Message:      fmt.Sprintf("feed '%s' already exists", f.URL),
				ResourceType: "feed",
				ResourceID:   existingID,
			}
		}
		return fmt.Errorf("create feed: %w", err)
	}

	return nil
}

func (r *PostgresFeedRepository) getExistingFeedID(ctx context.Context, userID, url string) (string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE user_id = $1 AND url = $2`, r.tables.Feeds)

	var id string
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, userID, url).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// GetByID retrieves a feed scoped to its owner
func (r *PostgresFeedRepository) GetByID(ctx context.Context, feedID, userID string) (*models.Feed, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, url, title, last_fetched_at, created_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Feeds)

	var f models.Feed
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, feedID, userID).Scan(
		&f.ID,
		&f.UserID,
		&f.URL,
		&f.Title,
		&f.LastFetchedAt,
		&f.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("feed %s: %w", feedID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get feed: %w", err)
	}

	return &f, nil
}

// List returns the user's feeds alphabetically
func (r *PostgresFeedRepository) List(ctx context.Context, userID string) ([]models.Feed, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, url, title, last_fetched_at, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY title ASC, created_at ASC
	`, r.tables.Feeds)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}

	feeds, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Feed, error) {
		var f models.Feed
		err := row.Scan(&f.ID, &f.UserID, &f.URL, &f.Title, &f.LastFetchedAt, &f.CreatedAt)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan feeds: %w", err)
	}

	return feeds, nil
}

// Delete removes a feed; items go with it (ON DELETE CASCADE)
func (r *PostgresFeedRepository) Delete(ctx context.Context, feedID, userID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.tables.Feeds)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, feedID, userID)
	if err != nil {
		return fmt.Errorf("delete feed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("feed %s: %w", feedID, domain.ErrNotFound)
	}
	return nil
}

// MarkFetched records the last successful refresh
func (r *PostgresFeedRepository) MarkFetched(ctx context.Context, feedID string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET last_fetched_at = $2 WHERE id = $1`, r.tables.Feeds)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, feedID, at); err != nil {
		return fmt.Errorf("mark feed fetched: %w", err)
	}
	return nil
}

// InsertItems stores items in one batch, skipping GUIDs already stored
func (r *PostgresFeedRepository) InsertItems(ctx context.Context, items []models.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (feed_id, guid, title, link, content, published_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (feed_id, guid) DO NOTHING
	`, r.tables.FeedItems)

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query,
			item.FeedID,
			item.GUID,
			item.Title,
			item.Link,
			item.Content,
			item.PublishedAt,
			item.CreatedAt,
		)
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	results := executor.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	inserted := 0
	for range items {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert feed item: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

// ListItems returns the newest items first
func (r *PostgresFeedRepository) ListItems(ctx context.Context, feedID string, limit int) ([]models.Item, error) {
	query := fmt.Sprintf(`
		SELECT id, feed_id, guid, title, link, content, published_at, created_at
		FROM %s
		WHERE feed_id = $1
		ORDER BY COALESCE(published_at, created_at) DESC, id DESC
		LIMIT $2
	`, r.tables.FeedItems)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, feedID, limit)
	if err != nil {
		return nil, fmt.Errorf("list feed items: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Item, error) {
		var item models.Item
		err := row.Scan(
			&item.ID,
			&item.FeedID,
			&item.GUID,
			&item.Title,
			&item.Link,
			&item.Content,
			&item.PublishedAt,
			&item.CreatedAt,
		)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan feed items: %w", err)
	}

	return items, nil
}
