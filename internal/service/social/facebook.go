package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"maimai/internal/domain"
	socialSvc "maimai/internal/domain/services/social"
)

const (
	// DefaultGraphURL is the Facebook Graph API root
	DefaultGraphURL = "https://graph.facebook.com/v19.0"
	// DefaultGraphTimeout bounds one Graph request
	DefaultGraphTimeout = 30 * time.Second

	providerName = "facebook"
)

// Graph error codes signalling throttling
var graphRateLimitCodes = map[int]bool{4: true, 17: true, 32: true, 613: true}

// GraphClient publishes to page feeds through the Graph API
type GraphClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGraphClient creates a client for baseURL (DefaultGraphURL when empty)
func NewGraphClient(baseURL string) *GraphClient {
	if baseURL == "" {
		baseURL = DefaultGraphURL
	}
	return &GraphClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultGraphTimeout},
	}
}

var _ socialSvc.Publisher = (*GraphClient)(nil)

// PublishToPage posts message (and optional link) to the page feed
func (c *GraphClient) PublishToPage(ctx context.Context, pageID, pageToken, message string, link *string) (string, error) {
	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", pageToken)
	if link != nil && *link != "" {
		form.Set("link", *link)
	}

	endpoint := fmt.Sprintf("%s/%s/feed", c.baseURL, url.PathEscape(pageID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &domain.ProviderError{
			Provider: providerName,
			Code:     domain.ProviderCodeUnavailable,
			Message:  "request failed",
			Err:      err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", mapGraphError(resp.StatusCode, body)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.ID == "" {
		return "", &domain.ProviderError{
			Provider: providerName,
			Code:     domain.ProviderCodeBadResponse,
			Message:  "response carried no post id",
			Err:      err,
		}
	}

	return created.ID, nil
}

type graphErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func mapGraphError(status int, body []byte) error {
	var apiErr graphErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	message := apiErr.Error.Message
	if message == "" {
		message = http.StatusText(status)
	}

	// OAuthException: expired or invalid page token
	if apiErr.Error.Code == 190 || status == http.StatusUnauthorized {
		return fmt.Errorf("%w: facebook rejected the page token: %s", domain.ErrUnauthorized, message)
	}

	code := domain.ProviderCodeBadResponse
	switch {
	case graphRateLimitCodes[apiErr.Error.Code] || status == http.StatusTooManyRequests:
		code = domain.ProviderCodeRateLimited
	case status >= 500:
		code = domain.ProviderCodeUnavailable
	}

	return &domain.ProviderError{
		Provider: providerName,
		Code:     code,
		Message:  message,
	}
}
