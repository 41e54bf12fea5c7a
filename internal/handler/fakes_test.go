package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"maimai/internal/domain"
	"maimai/internal/domain/models/chat"
	"maimai/internal/domain/models/playlist"
	billingSvc "maimai/internal/domain/services/billing"
	chatSvc "maimai/internal/domain/services/chat"
	docSvc "maimai/internal/domain/services/document"
	playlistSvc "maimai/internal/domain/services/playlist"
	"maimai/internal/httputil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serve routes one request through a mux registered with pattern, as user-1
func serve(t *testing.T, pattern string, h http.HandlerFunc, method, target string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)

	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req = httputil.WithUserID(req, "user-1")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

type fakeThreadService struct {
	chatSvc.ThreadService
	threads   map[string]*chat.Thread
	lastOpts  chat.ThreadListOptions
	lastPatch *chatSvc.UpdateThreadRequest
}

func (f *fakeThreadService) GetThread(_ context.Context, threadID, userID string) (*chat.Thread, error) {
	thread, ok := f.threads[threadID]
	if !ok || thread.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return thread, nil
}

func (f *fakeThreadService) ListThreads(_ context.Context, userID string, opts chat.ThreadListOptions) ([]chat.Thread, error) {
	f.lastOpts = opts
	var out []chat.Thread
	for _, th := range f.threads {
		if th.UserID == userID {
			out = append(out, *th)
		}
	}
	return out, nil
}

func (f *fakeThreadService) UpdateThread(_ context.Context, threadID, userID string, req *chatSvc.UpdateThreadRequest) (*chat.Thread, error) {
	f.lastPatch = req
	thread, ok := f.threads[threadID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if req.Title != nil {
		thread.Title = *req.Title
	}
	return thread, nil
}

type fakeMessageService struct {
	result *chatSvc.SendMessageResult
	err    error
	last   *chatSvc.SendMessageRequest
}

func (f *fakeMessageService) SendMessage(_ context.Context, req *chatSvc.SendMessageRequest) (*chatSvc.SendMessageResult, error) {
	f.last = req
	return f.result, f.err
}

type fakeProjectService struct {
	chatSvc.ProjectService
	projects  map[string]*chat.Project
	createErr error
}

func (f *fakeProjectService) CreateProject(_ context.Context, req *chatSvc.CreateProjectRequest) (*chat.Project, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &chat.Project{ID: "p-new", UserID: req.UserID, Name: req.Name}, nil
}

func (f *fakeProjectService) GetProject(_ context.Context, id, userID string) (*chat.Project, error) {
	project, ok := f.projects[id]
	if !ok || project.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return project, nil
}

type fakeCredits struct {
	billingSvc.CreditService
	balance int
}

func (f *fakeCredits) GetBalance(context.Context, string) (int, error) { return f.balance, nil }

func (f *fakeCredits) AddCredits(_ context.Context, _ string, amount int) (int, error) {
	if amount <= 0 {
		return 0, domain.ErrValidation
	}
	f.balance += amount
	return f.balance, nil
}

type fakeRateCard struct {
	billingSvc.RateCardService
}

func (fakeRateCard) Estimate(_ context.Context, model, text string) (*billingSvc.Estimate, error) {
	if text == "" {
		return nil, domain.ErrValidation
	}
	return &billingSvc.Estimate{Model: model, Characters: len(text), EstimatedCost: 1, Reserved: 5}, nil
}

type fakePlaylistService struct {
	playlistSvc.Service
	lastToken string
	lastIndex int
	result    *playlist.SyncResult
	err       error
}

func (f *fakePlaylistService) Update(_ context.Context, playlistID, _, token string) (*playlist.SyncResult, error) {
	f.lastToken = token
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakePlaylistService) MoveSong(_ context.Context, songID, _ string, index int) ([]playlist.Song, error) {
	f.lastIndex = index
	return []playlist.Song{{ID: songID, Position: index}}, nil
}

type fakeExtractor struct {
	got []byte
}

func (f *fakeExtractor) ExtractPDF(_ context.Context, data []byte) (*docSvc.Extraction, error) {
	f.got = data
	return &docSvc.Extraction{Pages: 1, Text: "hello", Characters: 5, EstimatedCost: 1}, nil
}
