// Package gateway is the REST client for the events API.
package gateway

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

	"github.com/mmynk/calendar/internal/calendar"
	"github.com/mmynk/calendar/internal/models"
)

// Ensure Client implements calendar.Gateway
var _ calendar.Gateway = (*Client)(nil)

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, e.Body)
}

// TokenSource returns the bearer token for the next request.
type TokenSource func() (string, error)

// Client talks to the events API rooted at a base URL such as
// "http://localhost:8080/api/".
type Client struct {
	base  *url.URL
	http  *http.Client
	token TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithToken authenticates every request with a bearer token.
func WithToken(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gateway url: %w", err)
	}
	c := &Client{base: base, http: &http.Client{Timeout: 10 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) ListEvents(ctx context.Context) ([]models.Event, error) {
	var out models.EventList
	if err := c.do(ctx, http.MethodGet, "events", nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

func (c *Client) CreateEvent(ctx context.Context, event models.Event) (models.Event, error) {
	var out models.Event
	err := c.do(ctx, http.MethodPost, "events", event, &out)
	return out, err
}

func (c *Client) UpdateEvent(ctx context.Context, id string, event models.Event) (models.Event, error) {
	var out models.Event
	err := c.do(ctx, http.MethodPut, "events/"+url.PathEscape(id), event, &out)
	return out, err
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "events/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CreateEvents(ctx context.Context, events []models.Event) ([]models.Event, error) {
	var out models.EventList
	if err := c.do(ctx, http.MethodPost, "events-list", models.EventList{Events: events}, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

func (c *Client) UpdateSeries(ctx context.Context, groupID string, patch models.EventPatch) ([]models.Event, error) {
	var out models.EventList
	if err := c.do(ctx, http.MethodPut, "recurring-events/"+url.PathEscape(groupID), patch, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

func (c *Client) DeleteSeries(ctx context.Context, groupID string) error {
	return c.do(ctx, http.MethodDelete, "recurring-events/"+url.PathEscape(groupID), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	target := c.base.ResolveReference(&url.URL{Path: path})

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		token, err := c.token()
		if err != nil {
			return fmt.Errorf("failed to get token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
