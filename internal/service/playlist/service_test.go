package playlist

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"maimai/internal/domain"
	"maimai/internal/domain/models/playlist"
	playlistSvc "maimai/internal/domain/services/playlist"
)

type fixture struct {
	songs     *fakeSongRepo
	playlists *fakePlaylistRepo
	provider  *fakeProvider
	factory   *fakeFactory
	sleeps    []time.Duration
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		songs:     newFakeSongRepo(),
		playlists: newFakePlaylistRepo(),
		provider:  &fakeProvider{},
	}
	f.factory = &fakeFactory{provider: f.provider}
	f.svc = NewService(f.songs, f.playlists, f.factory, 0, discardLogger())
	f.svc.sleep = func(_ context.Context, d time.Duration) error {
		f.sleeps = append(f.sleeps, d)
		return nil
	}
	return f
}

func trackIDs(songs []playlist.Song) []string {
	ids := make([]string, len(songs))
	for i, s := range songs {
		ids[i] = s.TrackID
	}
	return ids
}

func TestUpdate_SmallList(t *testing.T) {
	f := newFixture()
	f.songs.seed("pl", "u1", "A", "B", "C")

	result, err := f.svc.Update(context.Background(), "pl", "u1", "token")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(f.provider.replaceCalls) != 1 || len(f.provider.replaceCalls[0]) != 0 {
		t.Errorf("expected one clearing replace call, got %v", f.provider.replaceCalls)
	}
	want := [][]string{{"spotify:track:A", "spotify:track:B", "spotify:track:C"}}
	if !reflect.DeepEqual(f.provider.addCalls, want) {
		t.Errorf("add calls = %v, want %v", f.provider.addCalls, want)
	}
	if result.TotalTracks != 3 || result.SuccessfulTracks != 3 || len(result.FailedTracks) != 0 {
		t.Errorf("unexpected result %+v", result)
	}
	if p := f.playlists.playlists["pl"]; p == nil || p.LastSyncedAt == nil {
		t.Error("sync time not recorded")
	}
}

func TestUpdate_CapsAtHundred(t *testing.T) {
	f := newFixture()
	var tracks []string
	for i := 0; i < 150; i++ {
		tracks = append(tracks, fmt.Sprintf("T%03d", i))
	}
	f.songs.seed("pl", "u1", tracks...)

	result, err := f.svc.Update(context.Background(), "pl", "u1", "token")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	active, _ := f.songs.List(context.Background(), "pl", "u1", false)
	all, _ := f.songs.List(context.Background(), "pl", "u1", true)
	if len(active) != 100 || len(all)-len(active) != 50 {
		t.Errorf("active=%d removed=%d, want 100/50", len(active), len(all)-len(active))
	}
	if !reflect.DeepEqual(trackIDs(active), tracks[:100]) {
		t.Error("active songs are not the first 100 in order")
	}

	if len(f.provider.addCalls) != 1 || len(f.provider.addCalls[0]) != 100 {
		t.Fatalf("expected one batch of 100, got %d calls", len(f.provider.addCalls))
	}
	for i, uri := range f.provider.addCalls[0] {
		if uri != "spotify:track:"+tracks[i] {
			t.Fatalf("uri %d = %s, want track %s", i, uri, tracks[i])
		}
	}
	if result.TotalTracks != 100 || result.SuccessfulTracks != 100 || len(result.TruncatedTracks) != 50 {
		t.Errorf("unexpected result total=%d ok=%d truncated=%d", result.TotalTracks, result.SuccessfulTracks, len(result.TruncatedTracks))
	}
}

func TestUpdate_RetriesThenSucceeds(t *testing.T) {
	f := newFixture()
	f.songs.seed("pl", "u1", "A", "B")
	f.provider.addFailures = 2

	result, err := f.svc.Update(context.Background(), "pl", "u1", "token")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(f.provider.addCalls) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(f.provider.addCalls))
	}
	if result.SuccessfulTracks != 2 || len(result.FailedTracks) != 0 {
		t.Errorf("unexpected result %+v", result)
	}
	if !reflect.DeepEqual(f.sleeps, []time.Duration{time.Second, 2 * time.Second}) {
		t.Errorf("backoff = %v, want [1s 2s]", f.sleeps)
	}
}

func TestUpdate_ExhaustedRetriesReportFailure(t *testing.T) {
	f := newFixture()
	f.songs.seed("pl", "u1", "A", "B")
	f.provider.addFailures = 3

	result, err := f.svc.Update(context.Background(), "pl", "u1", "token")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if result.SuccessfulTracks != 0 || !reflect.DeepEqual(result.FailedTracks, []string{"A", "B"}) {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestUpdate_ClearFailureFailsEverything(t *testing.T) {
	f := newFixture()
	f.songs.seed("pl", "u1", "A")
	f.provider.replaceFails = 3

	result, err := f.svc.Update(context.Background(), "pl", "u1", "token")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(f.provider.addCalls) != 0 {
		t.Error("nothing should be added when the clear fails")
	}
	if !reflect.DeepEqual(result.FailedTracks, []string{"A"}) {
		t.Errorf("failed = %v", result.FailedTracks)
	}
}

func TestUpdate_CancelledDuringBackoff(t *testing.T) {
	f := newFixture()
	f.songs.seed("pl", "u1", "A")
	f.provider.addFailures = 3
	f.svc.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	if _, err := f.svc.Update(context.Background(), "pl", "u1", "token"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestAddRemoveRestore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.songs.seed("pl", "u1", "A", "B")

	c, err := f.svc.AddSong(ctx, &playlistSvc.AddSongRequest{UserID: "u1", PlaylistID: "pl", TrackID: "C", TrackName: "C"})
	if err != nil {
		t.Fatalf("AddSong: %v", err)
	}
	songs, _ := f.svc.ListSongs(ctx, "pl", "u1", false)
	if !reflect.DeepEqual(trackIDs(songs), []string{"C", "A", "B"}) {
		t.Errorf("after add: %v", trackIDs(songs))
	}

	if _, err := f.svc.AddSong(ctx, &playlistSvc.AddSongRequest{UserID: "u1", PlaylistID: "pl", TrackID: "C", TrackName: "C"}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate add: expected conflict, got %v", err)
	}

	b := songs[2]
	removed, err := f.svc.RemoveSong(ctx, b.ID, "u1")
	if err != nil || removed.RemovedAt == nil {
		t.Fatalf("RemoveSong: %+v, %v", removed, err)
	}
	songs, _ = f.svc.ListSongs(ctx, "pl", "u1", false)
	if !reflect.DeepEqual(trackIDs(songs), []string{"C", "A"}) {
		t.Errorf("after remove: %v", trackIDs(songs))
	}

	restored, err := f.svc.RestoreSong(ctx, b.ID, "u1")
	if err != nil || restored.RemovedAt != nil {
		t.Fatalf("RestoreSong: %+v, %v", restored, err)
	}
	songs, _ = f.svc.ListSongs(ctx, "pl", "u1", false)
	if !reflect.DeepEqual(trackIDs(songs), []string{"B", "C", "A"}) {
		t.Errorf("restored song should be on top: %v", trackIDs(songs))
	}

	// adding a removed track restores the existing row
	if _, err := f.svc.RemoveSong(ctx, c.ID, "u1"); err != nil {
		t.Fatal(err)
	}
	again, err := f.svc.AddSong(ctx, &playlistSvc.AddSongRequest{UserID: "u1", PlaylistID: "pl", TrackID: "C", TrackName: "C"})
	if err != nil || again.ID != c.ID {
		t.Errorf("expected restore of %s, got %+v, %v", c.ID, again, err)
	}
}

func TestMoveSong(t *testing.T) {
	tests := []struct {
		name  string
		move  string
		index int
		want  []string
	}{
		{"to front", "C", 0, []string{"C", "A", "B", "D"}},
		{"to end", "A", 3, []string{"B", "C", "D", "A"}},
		{"middle", "D", 1, []string{"A", "D", "B", "C"}},
		{"index past end is clamped", "B", 99, []string{"A", "C", "D", "B"}},
		{"negative index is clamped", "D", -4, []string{"D", "A", "B", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.songs.seed("pl", "u1", "A", "B", "C", "D")
			songs, _ := f.svc.ListSongs(context.Background(), "pl", "u1", false)
			var songID string
			for _, s := range songs {
				if s.TrackID == tt.move {
					songID = s.ID
				}
			}

			moved, err := f.svc.MoveSong(context.Background(), songID, "u1", tt.index)
			if err != nil {
				t.Fatalf("MoveSong: %v", err)
			}
			if !reflect.DeepEqual(trackIDs(moved), tt.want) {
				t.Errorf("returned order = %v, want %v", trackIDs(moved), tt.want)
			}
			stored, _ := f.svc.ListSongs(context.Background(), "pl", "u1", false)
			if !reflect.DeepEqual(trackIDs(stored), tt.want) {
				t.Errorf("stored order = %v, want %v", trackIDs(stored), tt.want)
			}
		})
	}
}

func TestCopyPlaylist(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.songs.seed("pl", "u1", "A", "B", "C")
	_ = f.playlists.Upsert(ctx, &playlist.Playlist{ID: "pl", UserID: "u1", Name: "Road trip"})
	songs, _ := f.svc.ListSongs(ctx, "pl", "u1", false)
	_, _ = f.svc.RemoveSong(ctx, songs[1].ID, "u1")

	result, err := f.svc.CopyPlaylist(ctx, &playlistSvc.CopyPlaylistRequest{UserID: "u1", AccessToken: "token", PlaylistID: "pl"})
	if err != nil {
		t.Fatalf("CopyPlaylist: %v", err)
	}

	if !reflect.DeepEqual(f.provider.created, []string{"Copy of Road trip"}) {
		t.Errorf("created = %v", f.provider.created)
	}
	if result.PlaylistID != "copy-1" || result.SuccessfulTracks != 2 {
		t.Errorf("unexpected result %+v", result)
	}
	copied, _ := f.svc.ListSongs(ctx, "copy-1", "u1", false)
	if !reflect.DeepEqual(trackIDs(copied), []string{"A", "C"}) {
		t.Errorf("copied songs = %v", trackIDs(copied))
	}
	// source untouched
	source, _ := f.svc.ListSongs(ctx, "pl", "u1", true)
	if len(source) != 3 {
		t.Errorf("source has %d songs", len(source))
	}
}

func TestImportTracks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.songs.seed("pl", "u1", "A")
	f.provider.searchResults = map[string]*playlist.RemoteTrack{
		"song x": {ID: "X", Name: "Song X"},
		"song y": {ID: "Y", Name: "Song Y"},
		"song a": {ID: "A", Name: "Song A"},
	}

	added, err := f.svc.ImportTracks(ctx, &playlistSvc.ImportTracksRequest{
		UserID:      "u1",
		AccessToken: "token",
		PlaylistID:  "pl",
		Queries:     []string{"song x", "unknown", "song a", "song y", "  "},
	})
	if err != nil {
		t.Fatalf("ImportTracks: %v", err)
	}
	if !reflect.DeepEqual(trackIDs(added), []string{"X", "Y"}) {
		t.Errorf("added = %v", trackIDs(added))
	}
	if len(f.provider.searches) != 4 {
		t.Errorf("searches = %v", f.provider.searches)
	}
	songs, _ := f.svc.ListSongs(ctx, "pl", "u1", false)
	if !reflect.DeepEqual(trackIDs(songs), []string{"X", "Y", "A"}) {
		t.Errorf("order = %v", trackIDs(songs))
	}

	if _, err := f.svc.ImportTracks(ctx, &playlistSvc.ImportTracksRequest{UserID: "u1", AccessToken: "t", PlaylistID: "pl"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty queries: expected ErrValidation, got %v", err)
	}
}

func TestWithRetry(t *testing.T) {
	var sleeps []time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	calls := 0
	err := withRetry(context.Background(), sleep, func(context.Context) error {
		calls++
		return errors.New("boom")
	})
	if err == nil || calls != 3 {
		t.Errorf("calls=%d err=%v", calls, err)
	}
	if !reflect.DeepEqual(sleeps, []time.Duration{time.Second, 2 * time.Second}) {
		t.Errorf("sleeps = %v", sleeps)
	}
}
