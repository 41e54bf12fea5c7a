package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"maimai/internal/domain"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title> Mai Mai Blog </title>
  <link>https://example.com</link>
  <item>
    <title>First post</title>
    <link>https://example.com/1</link>
    <guid>post-1</guid>
    <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    <description><![CDATA[<p>Hello <strong>world</strong></p><script>alert(1)</script>]]></description>
  </item>
  <item>
    <title>No guid</title>
    <link>https://example.com/2</link>
    <description>plain</description>
  </item>
  <item>
    <title>Nothing to key on</title>
  </item>
</channel>
</rss>`

func TestHTTPFetcher_ParsesRSS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing user agent")
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	fetched, err := NewHTTPFetcher(nil).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if fetched.Title != "Mai Mai Blog" {
		t.Errorf("title = %q", fetched.Title)
	}
	if len(fetched.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(fetched.Items))
	}

	first := fetched.Items[0]
	if first.GUID != "post-1" || first.Title != "First post" || first.Link != "https://example.com/1" {
		t.Errorf("unexpected first item %+v", first)
	}
	if first.Content != "Hello **world**" {
		t.Errorf("content = %q", first.Content)
	}
	if first.PublishedAt == nil || first.PublishedAt.Year() != 2006 {
		t.Errorf("published = %v", first.PublishedAt)
	}

	if fetched.Items[1].GUID != "https://example.com/2" {
		t.Errorf("guid should fall back to link, got %q", fetched.Items[1].GUID)
	}
}

func TestHTTPFetcher_Errors(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		body           string
		wantValidation bool
	}{
		{"not found", http.StatusNotFound, "", false},
		{"not a feed", http.StatusOK, "<html><body>hi</body></html>", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPFetcher(nil).Fetch(context.Background(), srv.URL)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, domain.ErrValidation); got != tt.wantValidation {
				t.Errorf("ErrValidation = %v, want %v (%v)", got, tt.wantValidation, err)
			}
		})
	}
}

func TestContentConverter(t *testing.T) {
	c := newContentConverter()

	tests := []struct {
		name    string
		html    string
		want    string
		exclude string
	}{
		{"empty", "   ", "", ""},
		{"formatting", "<p>Hello <em>there</em></p>", "Hello _there_", ""},
		{"script stripped", `<p>ok</p><script>steal()</script>`, "ok", "steal"},
		{"javascript link stripped", `<a href="javascript:alert(1)">click</a>`, "click", "javascript"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Convert(tt.html)
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}
			if got != tt.want {
				t.Errorf("Convert = %q, want %q", got, tt.want)
			}
			if tt.exclude != "" && strings.Contains(got, tt.exclude) {
				t.Errorf("output still contains %q", tt.exclude)
			}
		})
	}
}
