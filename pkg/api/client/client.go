// Package client is a typed SDK for the FinTrack HTTP API.
package client

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

	"github.com/TiwariV18/FinTrack/internal/domain"
)

const defaultBaseURL = "http://localhost:5000"

// Client provides typed access to the FinTrack API for interactive tools.
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

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = defaultBaseURL
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

// BaseURL reports the normalized API root.
func (c *Client) BaseURL() string { return c.baseURL }

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, v any) error {
	if c == nil {
		return errors.New("client is nil")
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := APIError{Status: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return apiErr
	}
	var payload struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(payload.Message)
	apiErr.Fields = payload.Errors
	return apiErr
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    domain.PublicUser `json:"user"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", reg, "", &out)
	return out, err
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", domain.Credentials{Email: email, Password: password}, "", &out)
	return out, err
}

// Me fetches the profile behind token.
func (c *Client) Me(ctx context.Context, token string) (domain.PublicUser, error) {
	var out domain.PublicUser
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, token, &out)
	return out, err
}

// CreateTransaction records an income or expense.
func (c *Client) CreateTransaction(ctx context.Context, token string, kind domain.Kind, in domain.TransactionInput) (domain.Transaction, error) {
	var out map[string]json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/"+string(kind), in, token, &out); err != nil {
		return domain.Transaction{}, err
	}
	return field[domain.Transaction](out, string(kind))
}

// ListTransactions returns the caller's records of kind, newest first.
func (c *Client) ListTransactions(ctx context.Context, token string, kind domain.Kind) ([]domain.Transaction, error) {
	var out map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/"+string(kind), nil, token, &out); err != nil {
		return nil, err
	}
	return field[[]domain.Transaction](out, kind.Plural())
}

// UpdateTransaction replaces the editable fields of a record.
func (c *Client) UpdateTransaction(ctx context.Context, token string, kind domain.Kind, id string, in domain.TransactionInput) (domain.Transaction, error) {
	var out map[string]json.RawMessage
	path := "/" + string(kind) + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, path, in, token, &out); err != nil {
		return domain.Transaction{}, err
	}
	return field[domain.Transaction](out, string(kind))
}

// DeleteTransaction removes a record.
func (c *Client) DeleteTransaction(ctx context.Context, token string, kind domain.Kind, id string) error {
	return c.do(ctx, http.MethodDelete, "/"+string(kind)+"/"+url.PathEscape(id), nil, token, nil)
}

// Stats fetches dashboard totals.
func (c *Client) Stats(ctx context.Context, token string) (domain.Stats, error) {
	var out domain.Stats
	err := c.do(ctx, http.MethodGet, "/dashboard/stats", nil, token, &out)
	return out, err
}

// Categories fetches per-category totals for kind.
func (c *Client) Categories(ctx context.Context, token string, kind domain.Kind) ([]domain.CategoryTotal, error) {
	var out struct {
		Categories []domain.CategoryTotal `json:"categories"`
	}
	path := "/dashboard/categories?kind=" + url.QueryEscape(string(kind))
	if err := c.do(ctx, http.MethodGet, path, nil, token, &out); err != nil {
		return nil, err
	}
	if out.Categories == nil {
		out.Categories = []domain.CategoryTotal{}
	}
	return out.Categories, nil
}

func field[T any](payload map[string]json.RawMessage, key string) (T, error) {
	var v T
	raw, ok := payload[key]
	if !ok {
		return v, fmt.Errorf("decode response: missing %q", key)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode response %q: %w", key, err)
	}
	return v, nil
}
