// Package api provides typed access to the medqueue HTTP API for
// interactive tools.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the medqueue server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:8000"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, v any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.baseURL + path
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg := extractError(resp.Body)
		return APIError{Status: resp.StatusCode, Message: msg}
	}

	if v == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) string {
	if body == nil {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(payload.Error)
}

// LoginResult captures the token payload emitted by the API.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserRole    string `json:"user_role"`
}

// Message reflects API message payloads.
type Message struct {
	ID        int64     `json:"message_id"`
	User      string    `json:"user"`
	Text      string    `json:"message_text"`
	Status    string    `json:"status"`
	SentDate  time.Time `json:"sent_date"`
	FromStaff bool      `json:"is_doc"`
}

// Register creates a client account. Registering an existing name is a
// no-op on the server.
func (c *Client) Register(ctx context.Context, username, password string) error {
	body := map[string]string{
		"username": username,
		"password": password,
	}
	return c.do(ctx, http.MethodPost, "/register", body, "", nil)
}

// Login exchanges credentials for an access token. An unknown name is
// registered on the fly.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}
	var resp LoginResult
	if err := c.do(ctx, http.MethodPost, "/login", body, "", &resp); err != nil {
		return LoginResult{}, err
	}
	return resp, nil
}

// Send submits a message. Clients leave recipient empty; staff must name
// the client thread the reply belongs to.
func (c *Client) Send(ctx context.Context, token, text, recipient string) error {
	body := map[string]string{"message_text": text}
	if strings.TrimSpace(recipient) != "" {
		body["recipient"] = recipient
	}
	return c.do(ctx, http.MethodPost, "/send_message", body, token, nil)
}

// Updates returns messages with an id greater than lastID. For staff that
// is the pending queue, for clients their own thread.
func (c *Client) Updates(ctx context.Context, token string, lastID int64) ([]Message, error) {
	body := map[string]int64{"last_message_id": lastID}
	var resp struct {
		NewMessages []Message `json:"new_messages"`
	}
	if err := c.do(ctx, http.MethodPost, "/updates", body, token, &resp); err != nil {
		return nil, err
	}
	return resp.NewMessages, nil
}

// MarkAnswered flags every message in the author's thread as answered.
// Staff only.
func (c *Client) MarkAnswered(ctx context.Context, token, author string) error {
	body := map[string]string{"author": author}
	return c.do(ctx, http.MethodPost, "/answered", body, token, nil)
}

// Resolve posts a closing staff reply and marks the recipient's thread
// answered in one step. Staff only.
func (c *Client) Resolve(ctx context.Context, token, recipient, text string) error {
	body := map[string]string{
		"recipient":    recipient,
		"message_text": text,
	}
	return c.do(ctx, http.MethodPost, "/resolve", body, token, nil)
}

// Health probes server and database availability.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, "", nil)
}
