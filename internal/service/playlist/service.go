package playlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/time/rate"

	"maimai/internal/config"
	"maimai/internal/domain"
	"maimai/internal/domain/models/playlist"
	playlistRepo "maimai/internal/domain/repositories/playlist"
	playlistSvc "maimai/internal/domain/services/playlist"
)

// Service implements playlistSvc.Service
type Service struct {
	songRepo     playlistRepo.SongRepository
	playlistRepo playlistRepo.PlaylistRepository
	providers    playlistSvc.ProviderFactory
	searchLimit  *rate.Limiter
	logger       *slog.Logger

	now   func() time.Time
	sleep sleepFunc
}

// NewService creates a playlist service. searchInterval is the minimum gap
// between successive provider search calls.
func NewService(
	songRepo playlistRepo.SongRepository,
	playlistRepo playlistRepo.PlaylistRepository,
	providers playlistSvc.ProviderFactory,
	searchInterval time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		songRepo:     songRepo,
		playlistRepo: playlistRepo,
		providers:    providers,
		searchLimit:  rate.NewLimiter(rate.Every(searchInterval), 1),
		logger:       logger,
		now:          time.Now,
		sleep:        sleepContext,
	}
}

var _ playlistSvc.Service = (*Service)(nil)

// ListSongs returns the playlist's songs in order
func (s *Service) ListSongs(ctx context.Context, playlistID, userID string, includeRemoved bool) ([]playlist.Song, error) {
	return s.songRepo.List(ctx, playlistID, userID, includeRemoved)
}

// ListPlaylists returns locally tracked playlists
func (s *Service) ListPlaylists(ctx context.Context, userID string) ([]playlist.Playlist, error) {
	return s.playlistRepo.List(ctx, userID)
}

// AddSong puts a track at the top of the list. A previously removed copy of
// the same track is restored instead of duplicated.
func (s *Service) AddSong(ctx context.Context, req *playlistSvc.AddSongRequest) (*playlist.Song, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.PlaylistID, validation.Required),
		validation.Field(&req.TrackID, validation.Required),
		validation.Field(&req.TrackName, validation.Required),
		validation.Field(&req.DurationMs, validation.Min(0)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	existing, err := s.songRepo.List(ctx, req.PlaylistID, req.UserID, true)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].TrackID != req.TrackID {
			continue
		}
		if existing[i].IsActive() {
			return nil, &domain.ConflictError{
				Message:      "track already in playlist",
				ResourceType: "song",
				ResourceID:   existing[i].ID,
			}
		}
		return s.RestoreSong(ctx, existing[i].ID, req.UserID)
	}

	top, err := s.songRepo.MinPosition(ctx, req.PlaylistID, req.UserID)
	if err != nil {
		return nil, err
	}

	song := &playlist.Song{
		UserID:     req.UserID,
		PlaylistID: req.PlaylistID,
		TrackID:    req.TrackID,
		TrackName:  req.TrackName,
		ArtistName: req.ArtistName,
		AlbumName:  req.AlbumName,
		DurationMs: req.DurationMs,
		Position:   top - 1,
		AddedAt:    s.now(),
	}
	if err := s.songRepo.Create(ctx, song); err != nil {
		return nil, err
	}

	s.logger.Info("song added",
		"playlist_id", req.PlaylistID,
		"track_id", req.TrackID,
		"user_id", req.UserID,
	)

	return song, nil
}

// RemoveSong soft-deletes a song; the row is kept for restore
func (s *Service) RemoveSong(ctx context.Context, songID, userID string) (*playlist.Song, error) {
	song, err := s.songRepo.GetByID(ctx, songID, userID)
	if err != nil {
		return nil, err
	}
	if !song.IsActive() {
		return song, nil
	}

	now := s.now()
	song.RemovedAt = &now
	if err := s.songRepo.Update(ctx, song); err != nil {
		return nil, err
	}

	s.logger.Info("song removed", "song_id", songID, "user_id", userID)
	return song, nil
}

// RestoreSong clears the removal and moves the song to the top
func (s *Service) RestoreSong(ctx context.Context, songID, userID string) (*playlist.Song, error) {
	song, err := s.songRepo.GetByID(ctx, songID, userID)
	if err != nil {
		return nil, err
	}

	top, err := s.songRepo.MinPosition(ctx, song.PlaylistID, userID)
	if err != nil {
		return nil, err
	}

	song.RemovedAt = nil
	song.AddedAt = s.now()
	song.Position = top - 1
	if err := s.songRepo.Update(ctx, song); err != nil {
		return nil, err
	}

	s.logger.Info("song restored", "song_id", songID, "user_id", userID)
	return song, nil
}

// MoveSong places an active song at index (clamped to the list bounds) and
// renumbers the list. Relative order of the other songs is preserved.
func (s *Service) MoveSong(ctx context.Context, songID, userID string, index int) ([]playlist.Song, error) {
	song, err := s.songRepo.GetByID(ctx, songID, userID)
	if err != nil {
		return nil, err
	}
	if !song.IsActive() {
		return nil, fmt.Errorf("%w: cannot move a removed song", domain.ErrValidation)
	}

	songs, err := s.songRepo.List(ctx, song.PlaylistID, userID, false)
	if err != nil {
		return nil, err
	}

	ordered := moveTo(songs, songID, index)
	ids := make([]string, len(ordered))
	for i := range ordered {
		ordered[i].Position = i
		ids[i] = ordered[i].ID
	}

	if err := s.songRepo.UpdatePositions(ctx, song.PlaylistID, userID, ids); err != nil {
		return nil, err
	}

	return ordered, nil
}

// Update pushes the first MaxTracks active songs to the remote playlist.
// Songs past the cap are marked removed so both views agree.
func (s *Service) Update(ctx context.Context, playlistID, userID, accessToken string) (*playlist.SyncResult, error) {
	songs, err := s.songRepo.List(ctx, playlistID, userID, false)
	if err != nil {
		return nil, err
	}

	result := &playlist.SyncResult{
		PlaylistID:      playlistID,
		FailedTracks:    []string{},
		TruncatedTracks: []string{},
	}

	if len(songs) > playlist.MaxTracks {
		overflow := songs[playlist.MaxTracks:]
		ids := make([]string, len(overflow))
		for i, song := range overflow {
			ids[i] = song.ID
			result.TruncatedTracks = append(result.TruncatedTracks, song.TrackID)
		}
		if err := s.songRepo.MarkRemoved(ctx, ids, s.now()); err != nil {
			return nil, fmt.Errorf("mark overflow removed: %w", err)
		}
		songs = songs[:playlist.MaxTracks]
		s.logger.Info("playlist truncated",
			"playlist_id", playlistID,
			"removed", len(overflow),
		)
	}
	result.TotalTracks = len(songs)

	provider := s.providers.ForToken(ctx, accessToken)

	// clear the remote list first
	err = withRetry(ctx, s.sleep, func(ctx context.Context) error {
		return provider.ReplaceTracks(ctx, playlistID, []string{})
	})
	if err != nil {
		if isContextErr(err) {
			return nil, err
		}
		s.logger.Error("failed to clear remote playlist", "playlist_id", playlistID, "error", err)
		for _, song := range songs {
			result.FailedTracks = append(result.FailedTracks, song.TrackID)
		}
		return result, nil
	}

	for start := 0; start < len(songs); start += playlist.MaxTracks {
		batch := songs[start:min(start+playlist.MaxTracks, len(songs))]
		uris := make([]string, len(batch))
		for i := range batch {
			uris[i] = batch[i].TrackURI()
		}

		err := withRetry(ctx, s.sleep, func(ctx context.Context) error {
			return provider.AddTracks(ctx, playlistID, uris)
		})
		if err != nil {
			if isContextErr(err) {
				return nil, err
			}
			s.logger.Warn("batch failed after retries",
				"playlist_id", playlistID,
				"batch_start", start,
				"batch_size", len(batch),
				"error", err,
			)
			for _, song := range batch {
				result.FailedTracks = append(result.FailedTracks, song.TrackID)
			}
			continue
		}
		result.SuccessfulTracks += len(batch)
	}

	now := s.now()
	if err := s.playlistRepo.Upsert(ctx, &playlist.Playlist{
		ID:           playlistID,
		UserID:       userID,
		LastSyncedAt: &now,
		CreatedAt:    now,
	}); err != nil {
		s.logger.Warn("failed to record sync time", "playlist_id", playlistID, "error", err)
	}

	s.logger.Info("playlist updated",
		"playlist_id", playlistID,
		"user_id", userID,
		"total", result.TotalTracks,
		"successful", result.SuccessfulTracks,
		"failed", len(result.FailedTracks),
	)

	return result, nil
}

// CopyPlaylist creates a new remote playlist, copies the active songs to it
// and pushes the copy once.
func (s *Service) CopyPlaylist(ctx context.Context, req *playlistSvc.CopyPlaylistRequest) (*playlist.SyncResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.AccessToken, validation.Required),
		validation.Field(&req.PlaylistID, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Copy of playlist"
		source, err := s.playlistRepo.GetByID(ctx, req.PlaylistID, req.UserID)
		switch {
		case err == nil && source.Name != "":
			name = "Copy of " + source.Name
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}

	provider := s.providers.ForToken(ctx, req.AccessToken)
	remote, err := provider.CreatePlaylist(ctx, name, "Copied by Mai Mai")
	if err != nil {
		return nil, err
	}

	if err := s.playlistRepo.Upsert(ctx, &playlist.Playlist{
		ID:        remote.ID,
		UserID:    req.UserID,
		Name:      remote.Name,
		CreatedAt: s.now(),
	}); err != nil {
		return nil, err
	}

	copied, err := s.songRepo.CopyActive(ctx, req.PlaylistID, remote.ID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("copy songs: %w", err)
	}

	s.logger.Info("playlist copied",
		"source_playlist_id", req.PlaylistID,
		"playlist_id", remote.ID,
		"songs", copied,
	)

	return s.Update(ctx, remote.ID, req.UserID, req.AccessToken)
}

// ImportTracks searches each query (throttled) and adds the hits to the top
// of the list in query order. Misses and tracks already active are skipped.
func (s *Service) ImportTracks(ctx context.Context, req *playlistSvc.ImportTracksRequest) ([]playlist.Song, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.AccessToken, validation.Required),
		validation.Field(&req.PlaylistID, validation.Required),
		validation.Field(&req.Queries, validation.Required, validation.Length(1, config.MaxImportQueries)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	existing, err := s.songRepo.List(ctx, req.PlaylistID, req.UserID, false)
	if err != nil {
		return nil, err
	}
	active := make(map[string]bool, len(existing))
	for _, song := range existing {
		active[song.TrackID] = true
	}

	provider := s.providers.ForToken(ctx, req.AccessToken)

	var hits []playlist.RemoteTrack
	for _, query := range req.Queries {
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}
		if err := s.searchLimit.Wait(ctx); err != nil {
			return nil, err
		}

		track, err := provider.SearchTrack(ctx, query)
		if err != nil {
			var perr *domain.ProviderError
			if errors.As(err, &perr) && perr.Code == domain.ProviderCodeRateLimited {
				return nil, err
			}
			s.logger.Warn("track search failed", "query", query, "error", err)
			continue
		}
		if track == nil || active[track.ID] {
			continue
		}
		active[track.ID] = true
		hits = append(hits, *track)
	}

	if len(hits) == 0 {
		return []playlist.Song{}, nil
	}

	top, err := s.songRepo.MinPosition(ctx, req.PlaylistID, req.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	added := make([]playlist.Song, 0, len(hits))
	for i, track := range hits {
		song := playlist.Song{
			UserID:     req.UserID,
			PlaylistID: req.PlaylistID,
			TrackID:    track.ID,
			TrackName:  track.Name,
			ArtistName: track.ArtistName,
			AlbumName:  track.AlbumName,
			DurationMs: track.DurationMs,
			Position:   top - len(hits) + i,
			AddedAt:    now,
		}
		if err := s.songRepo.Create(ctx, &song); err != nil {
			return nil, err
		}
		added = append(added, song)
	}

	s.logger.Info("tracks imported",
		"playlist_id", req.PlaylistID,
		"queries", len(req.Queries),
		"added", len(added),
	)

	return added, nil
}

// ListRemotePlaylists returns the user's playlists from the provider
func (s *Service) ListRemotePlaylists(ctx context.Context, userID, accessToken string) ([]playlist.RemotePlaylist, error) {
	playlists, err := s.providers.ForToken(ctx, accessToken).ListPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("remote playlists listed", "user_id", userID, "count", len(playlists))
	return playlists, nil
}

// RemoteTracks returns the tracks currently in a remote playlist
func (s *Service) RemoteTracks(ctx context.Context, playlistID, accessToken string) ([]playlist.RemoteTrack, error) {
	return s.providers.ForToken(ctx, accessToken).ListTracks(ctx, playlistID)
}

// moveTo returns a copy of songs with songID moved to index
func moveTo(songs []playlist.Song, songID string, index int) []playlist.Song {
	var moved *playlist.Song
	rest := make([]playlist.Song, 0, len(songs))
	for i := range songs {
		if songs[i].ID == songID {
			moved = &songs[i]
			continue
		}
		rest = append(rest, songs[i])
	}
	if moved == nil {
		return rest
	}

	index = max(0, min(index, len(rest)))
	out := make([]playlist.Song, 0, len(songs))
	out = append(out, rest[:index]...)
	out = append(out, *moved)
	return append(out, rest[index:]...)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
