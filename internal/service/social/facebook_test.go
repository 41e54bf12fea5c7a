package social

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"maimai/internal/domain"
)

func TestGraphClient_PublishToPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/page-1/feed" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
			return
		}
		if r.PostForm.Get("message") != "hello page" || r.PostForm.Get("access_token") != "page-token" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
		if r.PostForm.Get("link") != "https://example.com" {
			t.Errorf("link = %q", r.PostForm.Get("link"))
		}
		_, _ = w.Write([]byte(`{"id":"page-1_123"}`))
	}))
	defer srv.Close()

	link := "https://example.com"
	id, err := NewGraphClient(srv.URL).PublishToPage(context.Background(), "page-1", "page-token", "hello page", &link)
	if err != nil {
		t.Fatalf("PublishToPage: %v", err)
	}
	if id != "page-1_123" {
		t.Errorf("id = %q", id)
	}
}

func TestGraphClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantIs   error
		wantCode string
	}{
		{"expired token", http.StatusBadRequest, `{"error":{"message":"Session expired","type":"OAuthException","code":190}}`, domain.ErrUnauthorized, ""},
		{"throttled", http.StatusBadRequest, `{"error":{"message":"Too many calls","code":32}}`, domain.ErrProvider, domain.ProviderCodeRateLimited},
		{"server error", http.StatusInternalServerError, `{}`, domain.ErrProvider, domain.ProviderCodeUnavailable},
		{"duplicate post", http.StatusBadRequest, `{"error":{"message":"Duplicate status message","code":506}}`, domain.ErrProvider, domain.ProviderCodeBadResponse},
		{"no id", http.StatusOK, `{}`, domain.ErrProvider, domain.ProviderCodeBadResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewGraphClient(srv.URL).PublishToPage(context.Background(), "p", "t", "m", nil)
			if !errors.Is(err, tt.wantIs) {
				t.Fatalf("expected %v, got %v", tt.wantIs, err)
			}
			if tt.wantCode == "" {
				return
			}
			var perr *domain.ProviderError
			if !errors.As(err, &perr) || perr.Code != tt.wantCode {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}
