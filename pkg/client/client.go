// Package client provides the Luna Go SDK for talking to the Luna API:
// authentication, the dream journal, interpretation, and insights.
//
// Every Luna endpoint wraps its payload in a one-key envelope, either
// {"data": ...} on success or {"error": "..."} on failure. The SDK unwraps
// the envelope and surfaces failures as *APIError carrying the HTTP status
// and the server's message.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// APIError is a non-2xx response from the Luna API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("luna api error %d: %s", e.Status, e.Message)
}

// Client is the Luna SDK entry point.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// token state — guarded by mu
	mu          sync.Mutex
	accessToken string
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithAccessToken attaches a pre-obtained access token to every request.
func WithAccessToken(token string) Option {
	return func(c *Client) { c.accessToken = token }
}

// New creates a new Luna SDK Client connected to baseURL.
//
//	c := client.New("http://localhost:8080",
//	    client.WithTimeout(15*time.Second),
//	)
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetAccessToken replaces the token attached to subsequent requests.
// An empty string clears it. Thread-safe.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

// AccessToken returns the token currently attached to requests.
func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// Do executes a JSON call against the Luna API. reqBody is JSON-encoded when
// non-nil; the response envelope's "data" field is decoded into respData when
// non-nil. Non-2xx responses become *APIError with the envelope's "error"
// message.
func (c *Client) Do(ctx context.Context, method, path string, reqBody, respData any) error {
	var bodyReader io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var envelope struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(body))
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
			msg = envelope.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if respData == nil || len(body) == 0 {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode response envelope: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, respData); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// Raw executes a GET and returns the undecoded response body. Callers use
// this for endpoints whose envelope carries keys beside "data". Non-2xx
// responses become *APIError as in Do.
func (c *Client) Raw(ctx context.Context, path string) ([]byte, error) {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var envelope struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(body))
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
			msg = envelope.Error
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	return body, nil
}

// Get is shorthand for Do with http.MethodGet and no request body.
func (c *Client) Get(ctx context.Context, path string, respData any) error {
	return c.Do(ctx, http.MethodGet, path, nil, respData)
}

// Post is shorthand for Do with http.MethodPost.
func (c *Client) Post(ctx context.Context, path string, reqBody, respData any) error {
	return c.Do(ctx, http.MethodPost, path, reqBody, respData)
}
