package playlist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"maimai/internal/domain"
	models "maimai/internal/domain/models/playlist"
	playlistRepo "maimai/internal/domain/repositories/playlist"
	"maimai/internal/repository/postgres"
)

// PostgresPlaylistRepository implements playlistRepo.PlaylistRepository
type PostgresPlaylistRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewPlaylistRepository creates a new PostgresPlaylistRepository
func NewPlaylistRepository(config *postgres.RepositoryConfig) playlistRepo.PlaylistRepository {
	return &PostgresPlaylistRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Upsert inserts the record or refreshes name and sync time.
// An empty name or nil sync time keeps the stored value.
func (r *PostgresPlaylistRepository) Upsert(ctx context.Context, p *models.Playlist) error {
	query := fmt.Sprintf(`
		INSERT INTO %s AS p (id, user_id, name, last_synced_at, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id, user_id) DO UPDATE
		SET name = COALESCE(NULLIF(EXCLUDED.name, ''), p.name),
		    last_synced_at = COALESCE(EXCLUDED.last_synced_at, p.last_synced_at)
		RETURNING name, created_at
	`, r.tables.Playlists)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, p.ID, p.UserID, p.Name, p.LastSyncedAt).Scan(&p.Name, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert playlist: %w", err)
	}
	return nil
}

// GetByID returns a tracked playlist
func (r *PostgresPlaylistRepository) GetByID(ctx context.Context, playlistID, userID string) (*models.Playlist, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, name, last_synced_at, created_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Playlists)

	var p models.Playlist
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, playlistID, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.LastSyncedAt,
		&p.CreatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("playlist %s: %w", playlistID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get playlist: %w", err)
	}

	return &p, nil
}

// List returns tracked playlists, most recently synced first
func (r *PostgresPlaylistRepository) List(ctx context.Context, userID string) ([]models.Playlist, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, name, last_synced_at, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY last_synced_at DESC NULLS LAST, created_at DESC
	`, r.tables.Playlists)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.LastSyncedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}

	return playlists, nil
}
