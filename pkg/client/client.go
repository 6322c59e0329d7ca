// Package client provides HTTP client functionality to communicate with
// the roost agent daemon. The gateway uses it to forward inbound messages,
// and the CLI uses it for login, status and job submission.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Sentinel errors the CLI and gateway branch on.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("daemon unavailable")
)

// Client talks to a single daemon instance.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration
type Config struct {
	BaseURL string
	Token   string        // Optional bearer token for authenticated endpoints
	Timeout time.Duration
	Logger  *slog.Logger // Optional logger for client operations
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://127.0.0.1:18789",
		Timeout: 10 * time.Second,
	}
}

// New creates a new daemon API client
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:18789"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		baseURL: config.BaseURL,
		token:   config.Token,
		logger:  config.Logger,
		client:  &http.Client{Timeout: config.Timeout},
	}
}

// SetToken replaces the bearer token used for authenticated endpoints.
func (c *Client) SetToken(token string) { c.token = token }

// IsReachable checks if the daemon is running and reachable
func (c *Client) IsReachable(ctx context.Context) bool {
	var h Health
	if err := c.getJSON(ctx, "/health", false, &h); err != nil {
		c.logger.Debug("daemon unreachable", "error", err)
		return false
	}
	return true
}

// Health fetches the daemon's unauthenticated health report.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.getJSON(ctx, "/health", false, &h)
	return h, err
}

// Login exchanges credentials for a bearer token and installs it on the
// client for subsequent authenticated calls.
func (c *Client) Login(ctx context.Context, username, password string) (Token, error) {
	c.logger.Debug("logging in", "username", username)

	body := map[string]string{"username": username, "password": password}
	var tok Token
	if err := c.postJSON(ctx, "/api/v1/auth/login", body, false, &tok); err != nil {
		return Token{}, err
	}
	c.token = tok.Value
	return tok, nil
}

// Status fetches the daemon's authenticated status report.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.getJSON(ctx, "/api/v1/status", true, &st)
	return st, err
}

// SubmitJob enqueues one agent turn and returns the accepted job.
func (c *Client) SubmitJob(ctx context.Context, req SubmitJobRequest) (Job, error) {
	c.logger.Debug("submitting job", "persona", req.Persona, "source", req.Source)

	var job Job
	if err := c.postJSON(ctx, "/api/v1/jobs", req, true, &job); err != nil {
		return Job{}, err
	}
	c.logger.Debug("job accepted", "id", job.ID)
	return job, nil
}

// Job fetches a single job by id. Returns ErrNotFound for unknown ids.
func (c *Client) Job(ctx context.Context, id string) (Job, error) {
	var job Job
	err := c.getJSON(ctx, "/api/v1/jobs/"+id, true, &job)
	return job, err
}

// WaitJob polls a job until it settles, the interval ticking between
// polls, or the context expires.
func (c *Client) WaitJob(ctx context.Context, id string, interval time.Duration) (Job, error) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		job, err := c.Job(ctx, id)
		if err != nil {
			return Job{}, err
		}
		if job.Settled() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

// getJSON performs a GET request and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, path string, withAuth bool, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, withAuth, out)
}

// postJSON performs a POST request with a JSON body and decodes the response.
func (c *Client) postJSON(ctx context.Context, path string, body any, withAuth bool, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, data, withAuth, out)
}

// do performs an HTTP request with common error handling.
func (c *Client) do(ctx context.Context, method, path string, body []byte, withAuth bool, out any) error {
	var bodyReader *bytes.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withAuth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("HTTP request failed", "error", err, "path", path)
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// checkStatus maps non-2xx responses to errors, keeping the server's
// error message when one is present.
func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errorResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil || errorResp.Error == "" {
		errorResp.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	c.logger.Debug("API request failed", "error", errorResp.Error, "status", resp.StatusCode)
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, errorResp.Error)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, errorResp.Error)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", ErrUnavailable, errorResp.Error)
	default:
		return fmt.Errorf("API error: %s", errorResp.Error)
	}
}
