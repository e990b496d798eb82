// Package api is the REST client for the ordering backend. It attaches the
// current bearer token to every request, surfaces authorization failures as
// an explicit sentinel instead of navigating anywhere, and performs no
// retries; retry policy belongs to callers.
package api

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

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/quickplate/ordering-client/internal/metrics"
	"github.com/quickplate/ordering-client/pkg/logger"
)

// Sentinel errors for the caller-facing taxonomy.
var (
	// ErrUnauthenticated is returned on a 401. The client never clears
	// state or redirects itself; the application layer owns that decision.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound is returned on a 404.
	ErrNotFound = errors.New("not found")
)

// Error is a typed request failure carrying the HTTP status and the
// human-readable message extracted from the response body, if any.
type Error struct {
	Status    int
	Message   string
	RequestID string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

// Unwrap maps the status onto the sentinel taxonomy so callers can use
// errors.Is without inspecting status codes.
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// ServerMessage returns the server-provided message, or fallback when the
// body carried none. Call sites supply their own generic message.
func ServerMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// TokenSource supplies the current bearer token. An empty string means no
// authenticated session; the request is then sent without Authorization.
type TokenSource func() string

// Config holds client configuration.
type Config struct {
	// BaseURL is the backend root, e.g. "http://localhost:5000". The /api
	// prefix is appended here, matching the backend mount point.
	BaseURL string
	// Token supplies the bearer token per request. Optional.
	Token TokenSource
	// HTTPClient overrides the transport. Optional.
	HTTPClient *http.Client
	// Logger is used for request-level debug logging. Optional.
	Logger *logger.Logger
}

// Client is the ordering backend REST client.
type Client struct {
	baseURL    string
	token      TokenSource
	httpClient *http.Client
	log        *logger.Logger
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("BaseURL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("api")
	}

	token := cfg.Token
	if token == nil {
		token = func() string { return "" }
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/") + "/api",
		token:      token,
		httpClient: httpClient,
		log:        log,
	}, nil
}

// get issues a GET and decodes the JSON response into target.
func (c *Client) get(ctx context.Context, path string, query url.Values, target any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, target)
}

// post issues a POST with a JSON body and decodes the response into target.
func (c *Client) post(ctx context.Context, path string, body, target any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, target)
}

// put issues a PUT with a JSON body and decodes the response into target.
func (c *Client) put(ctx context.Context, path string, body, target any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, target)
}

// delete issues a DELETE and decodes the response into target.
func (c *Client) delete(ctx context.Context, path string, target any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, target)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, target any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveRequest(method, path, 0, time.Since(start))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	metrics.ObserveRequest(method, path, resp.StatusCode, time.Since(start))
	c.log.WithField("request_id", requestID).
		WithField("status", resp.StatusCode).
		Debugf("%s %s", method, path)

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &Error{
			Status:    resp.StatusCode,
			Message:   extractMessage(respBody),
			RequestID: requestID,
		}
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// extractMessage pulls a human-readable message out of an error body.
// Backends in the wild answer with {"message": ...} or {"error": ...}, and
// some nest the text one level down; gjson tolerates all of these.
func extractMessage(body []byte) string {
	for _, path := range []string{"message", "error", "error.message", "errors.0.message"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}
