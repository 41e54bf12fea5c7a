package playlist

import (
	"context"
	"time"

	"maimai/internal/domain/models/playlist"
)

// SongRepository defines data access for locally curated songs
type SongRepository interface {
	// Create inserts a song and fills ID
	Create(ctx context.Context, song *playlist.Song) error

	// GetByID retrieves a song scoped to its owner
	GetByID(ctx context.Context, songID, userID string) (*playlist.Song, error)

	// List returns songs of a playlist ordered by position.
	// Removed songs are included only when includeRemoved is set.
	List(ctx context.Context, playlistID, userID string, includeRemoved bool) ([]playlist.Song, error)

	// Update writes position, added_at and removed_at
	Update(ctx context.Context, song *playlist.Song) error

	// UpdatePositions rewrites positions for the given song ids (index = new position)
	UpdatePositions(ctx context.Context, playlistID, userID string, orderedIDs []string) error

	// MarkRemoved soft-deletes the given songs
	MarkRemoved(ctx context.Context, songIDs []string, at time.Time) error

	// MinPosition returns the smallest position among active songs (0 when empty)
	MinPosition(ctx context.Context, playlistID, userID string) (int, error)

	// CopyActive deep-copies active songs to another playlist id, keeping order
	CopyActive(ctx context.Context, fromPlaylistID, toPlaylistID, userID string) (int, error)
}

// PlaylistRepository defines data access for local playlist records
type PlaylistRepository interface {
	// Upsert inserts or updates the record. An empty name keeps the stored one.
	Upsert(ctx context.Context, p *playlist.Playlist) error

	// GetByID returns domain.ErrNotFound when the playlist was never tracked
	GetByID(ctx context.Context, playlistID, userID string) (*playlist.Playlist, error)

	List(ctx context.Context, userID string) ([]playlist.Playlist, error)
}
