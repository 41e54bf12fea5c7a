package playlist

import (
	"time"
)

// MaxTracks is the largest track list the playlist provider accepts in one replace call.
const MaxTracks = 100

// Song is a locally curated track in a remote playlist.
// Position is the sort key (ascending); RemovedAt marks a soft-deleted song.
type Song struct {
	ID         string     `json:"id" db:"id"`
	UserID     string     `json:"user_id" db:"user_id"`
	PlaylistID string     `json:"playlist_id" db:"playlist_id"`
	TrackID    string     `json:"track_id" db:"track_id"`
	TrackName  string     `json:"track_name" db:"track_name"`
	ArtistName string     `json:"artist_name" db:"artist_name"`
	AlbumName  string     `json:"album_name" db:"album_name"`
	DurationMs int        `json:"duration_ms" db:"duration_ms"`
	Position   int        `json:"position" db:"position"`
	AddedAt    time.Time  `json:"added_at" db:"added_at"`
	RemovedAt  *time.Time `json:"removed_at,omitempty" db:"removed_at"`
}

// IsActive reports whether the song is part of the current list
func (s *Song) IsActive() bool {
	return s.RemovedAt == nil
}

// TrackURI is the provider URI for the track
func (s *Song) TrackURI() string {
	return "spotify:track:" + s.TrackID
}
