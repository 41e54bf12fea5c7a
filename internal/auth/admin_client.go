package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// errUserNotFound is returned by findUserIDByEmail
var errUserNotFound = errors.New("user not found")

// AdminClient talks to the Supabase Admin API.
// It is used by cmd/seed to provision a dev account, never by the server.
type AdminClient struct {
	supabaseURL string
	serviceKey  string
	httpClient  *http.Client
}

// NewAdminClient requires the service role key
func NewAdminClient(supabaseURL, serviceKey string) *AdminClient {
	return &AdminClient{
		supabaseURL: supabaseURL,
		serviceKey:  serviceKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type createUserRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	EmailConfirm bool   `json:"email_confirm"`
}

type adminUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type listUsersResponse struct {
	Users []adminUser `json:"users"`
}

// EnsureUser returns the id of the user with email, creating a confirmed
// account with password when none exists.
func (c *AdminClient) EnsureUser(ctx context.Context, email, password string) (string, error) {
	id, err := c.findUserIDByEmail(ctx, email)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, errUserNotFound) {
		return "", err
	}
	return c.CreateUser(ctx, email, password)
}

// CreateUser creates a confirmed user and returns its id
func (c *AdminClient) CreateUser(ctx context.Context, email, password string) (string, error) {
	payload, err := json.Marshal(createUserRequest{Email: email, Password: password, EmailConfirm: true})
	if err != nil {
		return "", fmt.Errorf("failed to marshal create request: %w", err)
	}

	body, status, err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", payload)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return "", fmt.Errorf("create user failed with status %d: %s", status, string(body))
	}

	var user adminUser
	if err := json.Unmarshal(body, &user); err != nil {
		return "", fmt.Errorf("failed to decode create response: %w", err)
	}
	return user.ID, nil
}

func (c *AdminClient) findUserIDByEmail(ctx context.Context, email string) (string, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/auth/v1/admin/users", nil)
	if err != nil {
		return "", fmt.Errorf("failed to list users: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("list users failed with status %d: %s", status, string(body))
	}

	var list listUsersResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return "", fmt.Errorf("failed to decode list response: %w", err)
	}
	for _, user := range list.Users {
		if user.Email == email {
			return user.ID, nil
		}
	}
	return "", errUserNotFound
}

func (c *AdminClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.supabaseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
