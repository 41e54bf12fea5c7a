package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"maimai/internal/domain"
	"maimai/internal/domain/models/playlist"
	playlistSvc "maimai/internal/domain/services/playlist"
)

const (
	// DefaultBaseURL is the Spotify Web API root
	DefaultBaseURL = "https://api.spotify.com/v1"
	// DefaultTimeout bounds one Spotify request
	DefaultTimeout = 30 * time.Second

	providerName = "spotify"
	pageSize     = 50
)

// Factory builds clients bound to a user's access token
type Factory struct {
	baseURL string
	timeout time.Duration
}

// NewFactory creates a factory for the given API root (DefaultBaseURL when empty)
func NewFactory(baseURL string) *Factory {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Factory{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
	}
}

var _ playlistSvc.ProviderFactory = (*Factory)(nil)

// ForToken returns a client that sends token as a bearer credential.
// The base transport is taken from ctx (oauth2.HTTPClient) when present.
func (f *Factory) ForToken(ctx context.Context, accessToken string) playlistSvc.Provider {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = f.timeout

	return &Client{baseURL: f.baseURL, httpClient: httpClient}
}

// Client implements playlistSvc.Provider against the Spotify Web API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ playlistSvc.Provider = (*Client)(nil)

// ListPlaylists returns every playlist of the current user, following pagination
func (c *Client) ListPlaylists(ctx context.Context) ([]playlist.RemotePlaylist, error) {
	next := fmt.Sprintf("%s/me/playlists?limit=%d", c.baseURL, pageSize)

	playlists := []playlist.RemotePlaylist{}
	for next != "" {
		var page playlistPage
		if err := c.do(ctx, http.MethodGet, next, nil, &page); err != nil {
			return nil, err
		}
		for _, p := range page.Items {
			playlists = append(playlists, playlist.RemotePlaylist{
				ID:         p.ID,
				Name:       p.Name,
				TrackCount: p.Tracks.Total,
				OwnerID:    p.Owner.ID,
			})
		}
		next = page.Next
	}

	return playlists, nil
}

// ListTracks returns the tracks of a playlist in order. Local files and
// episodes without a track id are skipped.
func (c *Client) ListTracks(ctx context.Context, playlistID string) ([]playlist.RemoteTrack, error) {
	next := fmt.Sprintf("%s/playlists/%s/tracks?limit=%d", c.baseURL, url.PathEscape(playlistID), playlist.MaxTracks)

	tracks := []playlist.RemoteTrack{}
	for next != "" {
		var page trackPage
		if err := c.do(ctx, http.MethodGet, next, nil, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if item.Track == nil || item.Track.ID == "" {
				continue
			}
			tracks = append(tracks, item.Track.toRemote())
		}
		next = page.Next
	}

	return tracks, nil
}

// ReplaceTracks overwrites the playlist contents; an empty list clears it
func (c *Client) ReplaceTracks(ctx context.Context, playlistID string, uris []string) error {
	if err := checkBatch(uris); err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/playlists/%s/tracks", c.baseURL, url.PathEscape(playlistID))
	return c.do(ctx, http.MethodPut, endpoint, urisBody{URIs: uris}, nil)
}

// AddTracks appends uris to the end of the playlist
func (c *Client) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}
	if err := checkBatch(uris); err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/playlists/%s/tracks", c.baseURL, url.PathEscape(playlistID))
	return c.do(ctx, http.MethodPost, endpoint, urisBody{URIs: uris}, nil)
}

// CreatePlaylist creates a private playlist for the current user
func (c *Client) CreatePlaylist(ctx context.Context, name, description string) (*playlist.RemotePlaylist, error) {
	body := map[string]interface{}{
		"name":        name,
		"description": description,
		"public":      false,
	}

	var created spotifyPlaylist
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/me/playlists", body, &created); err != nil {
		return nil, err
	}

	return &playlist.RemotePlaylist{
		ID:      created.ID,
		Name:    created.Name,
		OwnerID: created.Owner.ID,
	}, nil
}

// SearchTrack returns the top track match or nil
func (c *Client) SearchTrack(ctx context.Context, query string) (*playlist.RemoteTrack, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", "1")

	var resp searchResponse
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Tracks.Items) == 0 {
		return nil, nil
	}

	track := resp.Tracks.Items[0].toRemote()
	return &track, nil
}

// do sends a JSON request and decodes the response into out (when non-nil)
func (c *Client) do(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &domain.ProviderError{
			Provider: providerName,
			Code:     domain.ProviderCodeUnavailable,
			Message:  "request failed",
			Err:      err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return mapStatus(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &domain.ProviderError{
			Provider: providerName,
			Code:     domain.ProviderCodeBadResponse,
			Message:  "failed to parse response",
			Err:      err,
		}
	}
	return nil
}

// mapStatus converts a non-2xx response into a domain error
func mapStatus(status int, body []byte) error {
	message := http.StatusText(status)
	var apiErr errorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: spotify rejected the access token: %s", domain.ErrUnauthorized, message)
	case status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrForbidden, message)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, message)
	}

	code := domain.ProviderCodeBadResponse
	switch {
	case status == http.StatusTooManyRequests:
		code = domain.ProviderCodeRateLimited
	case status >= 500:
		code = domain.ProviderCodeUnavailable
	}

	return &domain.ProviderError{
		Provider: providerName,
		Code:     code,
		Message:  message,
		Err:      errors.New(string(body)),
	}
}

func checkBatch(uris []string) error {
	if len(uris) > playlist.MaxTracks {
		return fmt.Errorf("%w: at most %d tracks per request, got %d", domain.ErrValidation, playlist.MaxTracks, len(uris))
	}
	return nil
}

type urisBody struct {
	URIs []string `json:"uris"`
}

type spotifyPlaylist struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
	Owner struct {
		ID string `json:"id"`
	} `json:"owner"`
}

type playlistPage struct {
	Items []spotifyPlaylist `json:"items"`
	Next  string            `json:"next"`
}

type spotifyTrack struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DurationMs int    `json:"duration_ms"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
}

func (t spotifyTrack) toRemote() playlist.RemoteTrack {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return playlist.RemoteTrack{
		ID:         t.ID,
		Name:       t.Name,
		ArtistName: strings.Join(names, ", "),
		AlbumName:  t.Album.Name,
		DurationMs: t.DurationMs,
	}
}

type trackPage struct {
	Items []struct {
		Track *spotifyTrack `json:"track"`
	} `json:"items"`
	Next string `json:"next"`
}

type searchResponse struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

type errorResponse struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}
