// Package client is a Go client for the FixPoint API. The bearer token lives
// in an explicit Session; a 401 from any endpoint clears it and notifies the
// owner once.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Session holds the bearer token shared by every call of a Client.
type Session struct {
	mu    sync.Mutex
	token string
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Clear drops the token and reports whether there was one.
func (s *Session) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.token != ""
	s.token = ""
	return had
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("fixpoint: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("fixpoint: %d: %s", e.StatusCode, e.Message)
}

// StatusOf returns the HTTP status carried by err, 0 when err is not an APIError.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}

type Client struct {
	baseURL        string
	http           *http.Client
	session        *Session
	onUnauthorized func()
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken starts the session already logged in.
func WithToken(token string) Option {
	return func(c *Client) { c.session.Set(token) }
}

// WithSession shares a session between clients.
func WithSession(s *Session) Option {
	return func(c *Client) { c.session = s }
}

// WithUnauthorizedHandler is called after a 401 tore the session down.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New returns a client for the API rooted at baseURL, e.g.
// http://localhost:5000/api.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		session: &Session{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

// Logout forgets the token without calling the unauthorized handler.
func (c *Client) Logout() { c.session.Clear() }

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("fixpoint: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.teardown()
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
			if apiErr.Message == "" {
				apiErr.Message = http.StatusText(resp.StatusCode)
			}
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("fixpoint: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) teardown() {
	if c.session.Clear() && c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}
