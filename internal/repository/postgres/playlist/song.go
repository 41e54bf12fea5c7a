package playlist

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"maimai/internal/domain"
	models "maimai/internal/domain/models/playlist"
	playlistRepo "maimai/internal/domain/repositories/playlist"
	"maimai/internal/repository/postgres"
)

const songColumns = `id, user_id, playlist_id, track_id, track_name, artist_name, album_name,
	duration_ms, position, added_at, removed_at`

// PostgresSongRepository implements playlistRepo.SongRepository
type PostgresSongRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewSongRepository creates a new PostgresSongRepository
func NewSongRepository(config *postgres.RepositoryConfig) playlistRepo.SongRepository {
	return &PostgresSongRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a song
func (r *PostgresSongRepository) Create(ctx context.Context, song *models.Song) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, playlist_id, track_id, track_name, artist_name, album_name,
			duration_ms, position, added_at, removed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, r.tables.PlaylistSongs)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		song.UserID,
		song.PlaylistID,
		song.TrackID,
		song.TrackName,
		song.ArtistName,
		song.AlbumName,
		song.DurationMs,
		song.Position,
		song.AddedAt,
		song.RemovedAt,
	).Scan(&song.ID)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      "track already in playlist",
				ResourceType: "song",
			}
		}
		return fmt.Errorf("create song: %w", err)
	}

	return nil
}

// GetByID retrieves a song scoped to its owner
func (r *PostgresSongRepository) GetByID(ctx context.Context, songID, userID string) (*models.Song, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, songColumns, r.tables.PlaylistSongs)

	executor := postgres.GetExecutor(ctx, r.pool)
	song, err := scanSong(executor.QueryRow(ctx, query, songID, userID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("song %s: %w", songID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get song: %w", err)
	}

	return song, nil
}

// List returns songs by position; ties break on id so the order is stable
func (r *PostgresSongRepository) List(ctx context.Context, playlistID, userID string, includeRemoved bool) ([]models.Song, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE playlist_id = $1 AND user_id = $2 AND ($3 OR removed_at IS NULL)
		ORDER BY position ASC, id ASC
	`, songColumns, r.tables.PlaylistSongs)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, playlistID, userID, includeRemoved)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, *song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}

	return songs, nil
}

// Update writes position, added_at and removed_at
func (r *PostgresSongRepository) Update(ctx context.Context, song *models.Song) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET position = $1, added_at = $2, removed_at = $3
		WHERE id = $4 AND user_id = $5
	`, r.tables.PlaylistSongs)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		song.Position,
		song.AddedAt,
		song.RemovedAt,
		song.ID,
		song.UserID,
	)
	if err != nil {
		return fmt.Errorf("update song: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("song %s: %w", song.ID, domain.ErrNotFound)
	}

	return nil
}

// UpdatePositions sets position = index for each id in one statement
func (r *PostgresSongRepository) UpdatePositions(ctx context.Context, playlistID, userID string, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return nil
	}
	positions := make([]int32, len(orderedIDs))
	for i := range orderedIDs {
		positions[i] = int32(i)
	}

	query := fmt.Sprintf(`
		UPDATE %s AS s
		SET position = v.position
		FROM unnest($3::uuid[], $4::int[]) AS v(id, position)
		WHERE s.id = v.id AND s.playlist_id = $1 AND s.user_id = $2
	`, r.tables.PlaylistSongs)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, playlistID, userID, orderedIDs, positions); err != nil {
		return fmt.Errorf("update positions: %w", err)
	}
	return nil
}

// MarkRemoved soft-deletes songs that are still active
func (r *PostgresSongRepository) MarkRemoved(ctx context.Context, songIDs []string, at time.Time) error {
	if len(songIDs) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		UPDATE %s
		SET removed_at = $2
		WHERE id = ANY($1::uuid[]) AND removed_at IS NULL
	`, r.tables.PlaylistSongs)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, songIDs, at); err != nil {
		return fmt.Errorf("mark songs removed: %w", err)
	}
	return nil
}

// MinPosition returns the top position among active songs, 0 when empty
func (r *PostgresSongRepository) MinPosition(ctx context.Context, playlistID, userID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MIN(position), 0)
		FROM %s
		WHERE playlist_id = $1 AND user_id = $2 AND removed_at IS NULL
	`, r.tables.PlaylistSongs)

	var top int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, playlistID, userID).Scan(&top); err != nil {
		return 0, fmt.Errorf("min position: %w", err)
	}
	return top, nil
}

// CopyActive duplicates the active songs under another playlist id,
// renumbering positions from 0 in the source order.
func (r *PostgresSongRepository) CopyActive(ctx context.Context, fromPlaylistID, toPlaylistID, userID string) (int, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, playlist_id, track_id, track_name, artist_name, album_name,
			duration_ms, position, added_at)
		SELECT user_id, $2, track_id, track_name, artist_name, album_name, duration_ms,
			(ROW_NUMBER() OVER (ORDER BY position, id) - 1)::int, now()
		FROM %s
		WHERE playlist_id = $1 AND user_id = $3 AND removed_at IS NULL
	`, r.tables.PlaylistSongs, r.tables.PlaylistSongs)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, fromPlaylistID, toPlaylistID, userID)
	if err != nil {
		return 0, fmt.Errorf("copy songs: %w", err)
	}
	return int(result.RowsAffected()), nil
}

func scanSong(row pgx.Row) (*models.Song, error) {
	var song models.Song
	err := row.Scan(
		&song.ID,
		&song.UserID,
		&song.PlaylistID,
		&song.TrackID,
		&song.TrackName,
		&song.ArtistName,
		&song.AlbumName,
		&song.DurationMs,
		&song.Position,
		&song.AddedAt,
		&song.RemovedAt,
	)
	if err != nil {
		return nil, err
	}
	return &song, nil
}
