package playlist

import (
	"context"

	"maimai/internal/domain/models/playlist"
)

// Provider is the remote playlist API (Spotify) bound to one user's token.
type Provider interface {
	ListPlaylists(ctx context.Context) ([]playlist.RemotePlaylist, error)
	ListTracks(ctx context.Context, playlistID string) ([]playlist.RemoteTrack, error)

	// ReplaceTracks overwrites the playlist with up to 100 URIs (empty clears it)
	ReplaceTracks(ctx context.Context, playlistID string, uris []string) error

	// AddTracks appends up to 100 URIs
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	CreatePlaylist(ctx context.Context, name, description string) (*playlist.RemotePlaylist, error)

	// SearchTrack returns the best match for a free-text query, nil if none
	SearchTrack(ctx context.Context, query string) (*playlist.RemoteTrack, error)
}

// ProviderFactory binds a provider to the caller's OAuth access token
type ProviderFactory interface {
	ForToken(ctx context.Context, accessToken string) Provider
}

// Service manages the local song list and pushes it to the provider
type Service interface {
	ListSongs(ctx context.Context, playlistID, userID string, includeRemoved bool) ([]playlist.Song, error)
	AddSong(ctx context.Context, req *AddSongRequest) (*playlist.Song, error)
	RemoveSong(ctx context.Context, songID, userID string) (*playlist.Song, error)
	RestoreSong(ctx context.Context, songID, userID string) (*playlist.Song, error)

	// MoveSong moves an active song to index, preserving the relative order of the rest
	MoveSong(ctx context.Context, songID, userID string, index int) ([]playlist.Song, error)

	// Update pushes the first 100 active songs to the remote playlist
	Update(ctx context.Context, playlistID, userID, accessToken string) (*playlist.SyncResult, error)

	// CopyPlaylist duplicates a playlist remotely and locally, then pushes the copy
	CopyPlaylist(ctx context.Context, req *CopyPlaylistRequest) (*playlist.SyncResult, error)

	// ImportTracks searches each query and adds the hits to the top of the list
	ImportTracks(ctx context.Context, req *ImportTracksRequest) ([]playlist.Song, error)

	// ListPlaylists returns the playlists the user has curated locally
	ListPlaylists(ctx context.Context, userID string) ([]playlist.Playlist, error)

	ListRemotePlaylists(ctx context.Context, userID, accessToken string) ([]playlist.RemotePlaylist, error)
	RemoteTracks(ctx context.Context, playlistID, accessToken string) ([]playlist.RemoteTrack, error)
}

// AddSongRequest is the DTO for adding a song
type AddSongRequest struct {
	UserID     string `json:"-"`
	PlaylistID string `json:"-"`
	TrackID    string `json:"track_id"`
	TrackName  string `json:"track_name"`
	ArtistName string `json:"artist_name"`
	AlbumName  string `json:"album_name"`
	DurationMs int    `json:"duration_ms"`
}

// CopyPlaylistRequest is the DTO for duplicating a playlist
type CopyPlaylistRequest struct {
	UserID      string `json:"-"`
	AccessToken string `json:"-"`
	PlaylistID  string `json:"-"`
	Name        string `json:"name"`
}

// ImportTracksRequest is the DTO for bulk search-and-add
type ImportTracksRequest struct {
	UserID      string   `json:"-"`
	AccessToken string   `json:"-"`
	PlaylistID  string   `json:"-"`
	Queries     []string `json:"queries"`
}
