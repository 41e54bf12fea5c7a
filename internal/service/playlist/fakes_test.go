package playlist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"maimai/internal/domain"
	"maimai/internal/domain/models/playlist"
	playlistSvc "maimai/internal/domain/services/playlist"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSongRepo struct {
	mu    sync.Mutex
	seq   int
	songs map[string]*playlist.Song
}

func newFakeSongRepo() *fakeSongRepo {
	return &fakeSongRepo{songs: map[string]*playlist.Song{}}
}

func (r *fakeSongRepo) Create(_ context.Context, song *playlist.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	song.ID = fmt.Sprintf("song-%d", r.seq)
	cp := *song
	r.songs[song.ID] = &cp
	return nil
}

func (r *fakeSongRepo) GetByID(_ context.Context, songID, userID string) (*playlist.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.songs[songID]
	if !ok || s.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSongRepo) List(_ context.Context, playlistID, userID string, includeRemoved bool) ([]playlist.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(playlistID, userID, includeRemoved), nil
}

func (r *fakeSongRepo) list(playlistID, userID string, includeRemoved bool) []playlist.Song {
	out := []playlist.Song{}
	for _, s := range r.songs {
		if s.PlaylistID != playlistID || s.UserID != userID {
			continue
		}
		if !includeRemoved && !s.IsActive() {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *fakeSongRepo) Update(_ context.Context, song *playlist.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.songs[song.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *song
	r.songs[song.ID] = &cp
	return nil
}

func (r *fakeSongRepo) UpdatePositions(_ context.Context, _, _ string, orderedIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, id := range orderedIDs {
		r.songs[id].Position = i
	}
	return nil
}

func (r *fakeSongRepo) MarkRemoved(_ context.Context, songIDs []string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range songIDs {
		t := at
		r.songs[id].RemovedAt = &t
	}
	return nil
}

func (r *fakeSongRepo) MinPosition(_ context.Context, playlistID, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	songs := r.list(playlistID, userID, false)
	if len(songs) == 0 {
		return 0, nil
	}
	return songs[0].Position, nil
}

func (r *fakeSongRepo) CopyActive(_ context.Context, from, to, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	songs := r.list(from, userID, false)
	for i, s := range songs {
		r.seq++
		s.ID = fmt.Sprintf("song-%d", r.seq)
		s.PlaylistID = to
		s.Position = i
		cp := s
		r.songs[s.ID] = &cp
	}
	return len(songs), nil
}

// seed adds active songs for the given track ids, in order
func (r *fakeSongRepo) seed(playlistID, userID string, trackIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, track := range trackIDs {
		r.seq++
		id := fmt.Sprintf("song-%d", r.seq)
		r.songs[id] = &playlist.Song{
			ID:         id,
			UserID:     userID,
			PlaylistID: playlistID,
			TrackID:    track,
			TrackName:  track,
			Position:   i,
		}
	}
}

type fakePlaylistRepo struct {
	mu        sync.Mutex
	playlists map[string]*playlist.Playlist
}

func newFakePlaylistRepo() *fakePlaylistRepo {
	return &fakePlaylistRepo{playlists: map[string]*playlist.Playlist{}}
}

func (r *fakePlaylistRepo) Upsert(_ context.Context, p *playlist.Playlist) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	if existing, ok := r.playlists[p.ID]; ok && cp.Name == "" {
		cp.Name = existing.Name
	}
	r.playlists[p.ID] = &cp
	return nil
}

func (r *fakePlaylistRepo) GetByID(_ context.Context, playlistID, userID string) (*playlist.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.playlists[playlistID]
	if !ok || p.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlaylistRepo) List(_ context.Context, userID string) ([]playlist.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []playlist.Playlist
	for _, p := range r.playlists {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

// fakeProvider records remote calls and fails AddTracks a set number of times
type fakeProvider struct {
	mu            sync.Mutex
	replaceCalls  [][]string
	addCalls      [][]string
	addFailures   int // remaining AddTracks failures
	replaceFails  int // remaining ReplaceTracks failures
	created       []string
	searchResults map[string]*playlist.RemoteTrack
	searches      []string
}

func (p *fakeProvider) ListPlaylists(context.Context) ([]playlist.RemotePlaylist, error) {
	return []playlist.RemotePlaylist{{ID: "remote-1", Name: "Mix", TrackCount: 3}}, nil
}

func (p *fakeProvider) ListTracks(context.Context, string) ([]playlist.RemoteTrack, error) {
	return []playlist.RemoteTrack{{ID: "A", Name: "A"}}, nil
}

func (p *fakeProvider) ReplaceTracks(_ context.Context, _ string, uris []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replaceCalls = append(p.replaceCalls, uris)
	if p.replaceFails > 0 {
		p.replaceFails--
		return errors.New("503 service unavailable")
	}
	return nil
}

func (p *fakeProvider) AddTracks(_ context.Context, _ string, uris []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addCalls = append(p.addCalls, uris)
	if p.addFailures > 0 {
		p.addFailures--
		return errors.New("502 bad gateway")
	}
	return nil
}

func (p *fakeProvider) CreatePlaylist(_ context.Context, name, _ string) (*playlist.RemotePlaylist, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, name)
	return &playlist.RemotePlaylist{ID: "copy-1", Name: name}, nil
}

func (p *fakeProvider) SearchTrack(_ context.Context, query string) (*playlist.RemoteTrack, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searches = append(p.searches, query)
	return p.searchResults[query], nil
}

type fakeFactory struct {
	provider *fakeProvider
	tokens   []string
}

func (f *fakeFactory) ForToken(_ context.Context, token string) playlistSvc.Provider {
	f.tokens = append(f.tokens, token)
	return f.provider
}
