package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"maimai/internal/domain"
	domainllm "maimai/internal/domain/services/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewProvider(Config{
		APIKey:       "test-key",
		BaseURL:      srv.URL + "/v1",
		SummaryModel: "gpt-4o-mini",
		ImageModel:   "dall-e-3",
	})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	return p
}

func TestProvider_Complete(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", body.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "c1", "object": "chat.completion", "model": "gpt-4o-2024-08-06",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 1000, "completion_tokens": 500, "total_tokens": 1500}
		}`))
	})

	resp, err := p.Complete(context.Background(), &domainllm.CompletionRequest{
		Model: "gpt-4o",
		Messages: []domainllm.Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "hi"},
		},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "hello" || resp.InputTokens != 1000 || resp.OutputTokens != 500 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Model != "gpt-4o-2024-08-06" {
		t.Errorf("model = %q", resp.Model)
	}
}

func TestProvider_ErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
	}{
		{
			name:     "quota exceeded",
			status:   http.StatusTooManyRequests,
			body:     `{"error": {"message": "You exceeded your current quota", "type": "insufficient_quota", "code": "insufficient_quota"}}`,
			wantCode: domain.ProviderCodeQuotaExceeded,
		},
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     `{"error": {"message": "Rate limit reached", "type": "requests", "code": "rate_limit_exceeded"}}`,
			wantCode: domain.ProviderCodeRateLimited,
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			body:     `{"error": {"message": "boom", "type": "server_error"}}`,
			wantCode: domain.ProviderCodeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			// go-openai retries nothing by default, so one response is enough
			_, err := p.Complete(context.Background(), &domainllm.CompletionRequest{
				Model:    "gpt-4o",
				Messages: []domainllm.Message{{Role: "user", Content: "hi"}},
			})

			var perr *domain.ProviderError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if perr.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", perr.Code, tt.wantCode)
			}
			if !errors.Is(err, domain.ErrProvider) {
				t.Error("expected errors.Is(err, ErrProvider)")
			}
		})
	}
}

func TestProvider_GenerateImage(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/generations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created": 1, "data": [{"url": "https://img.example/cat.png"}]}`))
	})

	img, err := p.GenerateImage(context.Background(), "a cat")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if img.URL != "https://img.example/cat.png" || img.Model != "dall-e-3" {
		t.Errorf("unexpected image: %+v", img)
	}
}

func TestProvider_SupportsModel(t *testing.T) {
	p := &Provider{}
	for model, want := range map[string]bool{
		"gpt-4o":          true,
		"GPT-4o-mini":     true,
		"o1-mini":         true,
		"claude-sonnet-4": false,
		"lorem-fast":      false,
	} {
		if got := p.SupportsModel(model); got != want {
			t.Errorf("SupportsModel(%q) = %v, want %v", model, got, want)
		}
	}
}
