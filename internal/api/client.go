// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the KurisuAssistant backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the KurisuAssistant API base URL (default: http://localhost:15597)
	BaseURL string

	// Timeout for non-streaming requests (default: 30s)
	Timeout time.Duration

	// StreamTimeout is the overall budget for one chat stream (default: 300s)
	StreamTimeout time.Duration

	// PageSize for conversation history pagination (default: 50)
	PageSize int

	// Logger receives redacted request logging. Defaults to a disabled logger.
	Logger zerolog.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       "http://localhost:15597",
		Timeout:       30 * time.Second,
		StreamTimeout: 300 * time.Second,
		PageSize:      50,
		Logger:        zerolog.Nop(),
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the KurisuAssistant backend.
// It carries the bearer token once authenticated and attaches it to every
// request. The Client is thread-safe for concurrent use.
//
// Example:
//
//	client := api.NewClient()
//	tok, err := client.Login(ctx, "kurisu", "secret")
type Client struct {
	config     *ClientConfig
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a new backend client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new backend client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:15597"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.StreamTimeout == 0 {
		config.StreamTimeout = 300 * time.Second
	}
	if config.PageSize == 0 {
		config.PageSize = 50
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// SetToken installs the bearer token used for authenticated requests.
// An empty token reverts the client to anonymous.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token, or "" when anonymous.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// HasToken reports whether a bearer token is installed.
func (c *Client) HasToken() bool {
	return c.Token() != ""
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// PageSize returns the configured history page size.
func (c *Client) PageSize() int {
	return c.config.PageSize
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// newRequest builds a request with the bearer token attached and logs it
// with the Authorization header redacted.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}

	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	// Never log the token itself, only whether one was attached.
	c.config.Logger.Debug().
		Str("method", method).
		Str("path", path).
		Bool("authorized", c.HasToken()).
		Msg("api request")

	return req, nil
}

// mapTransportError converts low-level transport failures to typed errors.
func mapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTimeout
	}
	return &ClientError{Type: ErrTypeUnreachable, Message: "server is not reachable", Cause: err}
}

// checkStatus maps non-2xx responses to typed errors, pulling the server's
// detail message out of the body when there is one.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}

	var srvErr serverError
	if err := json.NewDecoder(resp.Body).Decode(&srvErr); err == nil && srvErr.Detail != "" {
		return &ClientError{Type: ErrTypeServer, Message: srvErr.Detail}
	}
	return &ClientError{Type: ErrTypeServer, Message: "request failed: " + resp.Status}
}

// doJSON performs a request and decodes a JSON response into out.
// Pass nil out to discard the body.
func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// Health verifies that the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/health", nil, "", nil)
}

// =============================================================================
// AUTH
// =============================================================================

// Login exchanges credentials for a bearer token and installs it on the
// client. The password is never logged.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	return c.authenticate(ctx, "/login", username, password)
}

// Register creates a new account and installs the returned token.
func (c *Client) Register(ctx context.Context, username, password string) (*TokenResponse, error) {
	return c.authenticate(ctx, "/register", username, password)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (*TokenResponse, error) {
	body, err := json.Marshal(LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	var tok TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, path, bytes.NewReader(body), "application/json", &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "server returned an empty token"}
	}

	c.SetToken(tok.AccessToken)
	c.config.Logger.Info().Str("username", username).Msg("authenticated")
	return &tok, nil
}

// Me returns the authenticated user's profile. An ErrUnauthorized result
// means the installed token is no longer valid.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", nil, "", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateMe applies profile changes for the authenticated user.
func (c *Client) UpdateMe(ctx context.Context, update UserUpdate) (*User, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	var user User
	if err := c.doJSON(ctx, http.MethodPut, "/users/me", bytes.NewReader(body), "application/json", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UploadAvatar replaces the user's avatar. The bytes pass through
// untouched; any resizing is the server's business.
func (c *Client) UploadAvatar(ctx context.Context, filename string, data []byte) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build upload", Cause: err}
	}
	if _, err := part.Write(data); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build upload", Cause: err}
	}
	if err := writer.Close(); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build upload", Cause: err}
	}

	return c.doJSON(ctx, http.MethodPut, "/users/me/avatar", &buf, writer.FormDataContentType(), nil)
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// ListConversations returns summaries for the sidebar, newest first.
func (c *Client) ListConversations(ctx context.Context) ([]ConversationSummary, error) {
	var summaries []ConversationSummary
	if err := c.doJSON(ctx, http.MethodGet, "/conversations", nil, "", &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetConversationPage fetches one window of history. Offset counts back
// from the newest message, so offset 0 is the most recent page.
func (c *Client) GetConversationPage(ctx context.Context, id int64, limit, offset int) (*ConversationPage, error) {
	if limit <= 0 {
		limit = c.config.PageSize
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	path := "/conversations/" + strconv.FormatInt(id, 10) + "?" + query.Encode()

	var page ConversationPage
	if err := c.doJSON(ctx, http.MethodGet, path, nil, "", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// DeleteConversation removes a conversation and all its messages.
func (c *Client) DeleteConversation(ctx context.Context, id int64) error {
	path := "/conversations/" + strconv.FormatInt(id, 10)
	return c.doJSON(ctx, http.MethodDelete, path, nil, "", nil)
}

// =============================================================================
// MODELS
// =============================================================================

// ListModels returns the model names the backend can serve.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var result ModelsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/models", nil, "", &result); err != nil {
		return nil, err
	}
	return result.Models, nil
}

// =============================================================================
// IMAGES
// =============================================================================

// UploadImage uploads an attachment and returns its server UUID.
func (c *Client) UploadImage(ctx context.Context, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build upload", Cause: err}
	}
	if _, err := part.Write(data); err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build upload", Cause: err}
	}
	if err := writer.Close(); err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to build upload", Cause: err}
	}

	var result ImageUploadResponse
	if err := c.doJSON(ctx, http.MethodPost, "/images", &buf, writer.FormDataContentType(), &result); err != nil {
		return "", err
	}
	return result.UUID, nil
}

// GetImage downloads an image by server UUID.
func (c *Client) GetImage(ctx context.Context, uuid string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/images/"+uuid, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to read image", Cause: err}
	}
	return data, nil
}
