package playlist

import (
	"time"
)

// Playlist is the local record of a remote playlist the user curates.
type Playlist struct {
	ID           string     `json:"id" db:"id"` // remote playlist id
	UserID       string     `json:"user_id" db:"user_id"`
	Name         string     `json:"name" db:"name"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty" db:"last_synced_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// SyncResult reports a reconciliation push. Partial success is expected:
// batches that exhaust their retries contribute to FailedTracks while the
// others still go through.
type SyncResult struct {
	PlaylistID       string   `json:"playlist_id"`
	TotalTracks      int      `json:"total_tracks"`
	SuccessfulTracks int      `json:"successful_tracks"`
	FailedTracks     []string `json:"failed_tracks"`
	TruncatedTracks  []string `json:"truncated_tracks"`
}

// RemotePlaylist is a playlist as reported by the provider
type RemotePlaylist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TrackCount int    `json:"track_count"`
	OwnerID    string `json:"owner_id"`
}

// RemoteTrack is a track as reported by the provider
type RemoteTrack struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ArtistName string `json:"artist_name"`
	AlbumName  string `json:"album_name"`
	DurationMs int    `json:"duration_ms"`
}
