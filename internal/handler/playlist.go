package handler

import (
	"log/slog"
	"net/http"
	"strings"

	playlistSvc "maimai/internal/domain/services/playlist"
	"maimai/internal/httputil"
)

// SpotifyTokenHeader carries the caller's Spotify access token.
// The OAuth exchange happens client-side; the server never stores the token.
const SpotifyTokenHeader = "X-Spotify-Token"

// PlaylistHandler handles playlist curation and sync requests
type PlaylistHandler struct {
	playlists playlistSvc.Service
	logger    *slog.Logger
}

// NewPlaylistHandler creates a new playlist handler
func NewPlaylistHandler(playlists playlistSvc.Service, logger *slog.Logger) *PlaylistHandler {
	return &PlaylistHandler{
		playlists: playlists,
		logger:    logger,
	}
}

func spotifyToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := strings.TrimSpace(r.Header.Get(SpotifyTokenHeader))
	if token == "" {
		httputil.RespondError(w, http.StatusUnauthorized, SpotifyTokenHeader+" header is required")
		return "", false
	}
	return token, true
}

// ListPlaylists lists playlists curated locally
// GET /api/playlists
func (h *PlaylistHandler) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.playlists.ListPlaylists(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, playlists)
}

// ListRemotePlaylists lists the user's Spotify playlists
// GET /api/spotify/playlists
func (h *PlaylistHandler) ListRemotePlaylists(w http.ResponseWriter, r *http.Request) {
	token, ok := spotifyToken(w, r)
	if !ok {
		return
	}

	playlists, err := h.playlists.ListRemotePlaylists(r.Context(), httputil.GetUserID(r), token)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, playlists)
}

// RemoteTracks lists the tracks currently on a Spotify playlist
// GET /api/spotify/playlists/{id}/tracks
func (h *PlaylistHandler) RemoteTracks(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := PathParam(w, r, "id", "Playlist ID")
	if !ok {
		return
	}
	token, ok := spotifyToken(w, r)
	if !ok {
		return
	}

	tracks, err := h.playlists.RemoteTracks(r.Context(), playlistID, token)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tracks)
}

// ListSongs lists the local songs of a playlist in position order
// GET /api/playlists/{id}/songs?include_removed=true
func (h *PlaylistHandler) ListSongs(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := PathParam(w, r, "id", "Playlist ID")
	if !ok {
		return
	}

	songs, err := h.playlists.ListSongs(r.Context(), playlistID, httputil.GetUserID(r), QueryBool(r, "include_removed"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, songs)
}

// AddSong adds a track to the top of the playlist
// POST /api/playlists/{id}/songs
func (h *PlaylistHandler) AddSong(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := PathParam(w, r, "id", "Playlist ID")
	if !ok {
		return
	}

	var req playlistSvc.AddSongRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)
	req.PlaylistID = playlistID

	song, err := h.playlists.AddSong(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, song)
}

// RemoveSong soft-removes a song
// DELETE /api/songs/{id}
func (h *PlaylistHandler) RemoveSong(w http.ResponseWriter, r *http.Request) {
	songID, ok := IDParam(w, r, "id", "Song ID")
	if !ok {
		return
	}

	song, err := h.playlists.RemoveSong(r.Context(), songID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, song)
}

// RestoreSong brings a removed song back at the top
// POST /api/songs/{id}/restore
func (h *PlaylistHandler) RestoreSong(w http.ResponseWriter, r *http.Request) {
	songID, ok := IDParam(w, r, "id", "Song ID")
	if !ok {
		return
	}

	song, err := h.playlists.RestoreSong(r.Context(), songID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, song)
}

// MoveSong moves a song to a new index and returns the reordered list
// POST /api/songs/{id}/move
func (h *PlaylistHandler) MoveSong(w http.ResponseWriter, r *http.Request) {
	songID, ok := IDParam(w, r, "id", "Song ID")
	if !ok {
		return
	}

	var req struct {
		Index *int `json:"index"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Index == nil {
		httputil.RespondError(w, http.StatusBadRequest, "index is required")
		return
	}

	songs, err := h.playlists.MoveSong(r.Context(), songID, httputil.GetUserID(r), *req.Index)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, songs)
}

// Update pushes the local list to Spotify.
// Partial failures are reported in the body, not as an error status.
// POST /api/playlists/{id}/update
func (h *PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := PathParam(w, r, "id", "Playlist ID")
	if !ok {
		return
	}
	token, ok := spotifyToken(w, r)
	if !ok {
		return
	}

	result, err := h.playlists.Update(r.Context(), playlistID, httputil.GetUserID(r), token)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// CopyPlaylist duplicates a playlist under a new name
// POST /api/playlists/{id}/copy
func (h *PlaylistHandler) CopyPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := PathParam(w, r, "id", "Playlist ID")
	if !ok {
		return
	}
	token, ok := spotifyToken(w, r)
	if !ok {
		return
	}

	var req playlistSvc.CopyPlaylistRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)
	req.AccessToken = token
	req.PlaylistID = playlistID

	result, err := h.playlists.CopyPlaylist(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, result)
}

// ImportTracks searches each query and adds the hits
// POST /api/playlists/{id}/import
func (h *PlaylistHandler) ImportTracks(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := PathParam(w, r, "id", "Playlist ID")
	if !ok {
		return
	}
	token, ok := spotifyToken(w, r)
	if !ok {
		return
	}

	var req playlistSvc.ImportTracksRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = httputil.GetUserID(r)
	req.AccessToken = token
	req.PlaylistID = playlistID

	songs, err := h.playlists.ImportTracks(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, songs)
}
