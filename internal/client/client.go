// Package client is a typed wrapper over the catalog REST API.  It issues
// one HTTP request per call: no retries, caching or batching.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/iliyamo/movie-scheduler/internal/model"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 APIError.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusNotFound
}

// Client talks to one API base URL, e.g. http://localhost:8080/api/v1.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
		}
	}
}

// New creates a client for baseURL.  A trailing slash is ignored.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Movies returns the /movies resource.
func (c *Client) Movies() *Resource[model.Movie, model.MovieInput] {
	return &Resource[model.Movie, model.MovieInput]{c: c, path: "/movies"}
}

// Actors returns the /actors resource.
func (c *Client) Actors() *Resource[model.Actor, model.ActorInput] {
	return &Resource[model.Actor, model.ActorInput]{c: c, path: "/actors"}
}

// Schedules returns the /schedules resource.  List entries carry the
// joined movie and actor; Create and Update return the bare schedule with
// the join fields left empty.
func (c *Client) Schedules() *Resource[model.ScheduleDetail, model.ScheduleInput] {
	return &Resource[model.ScheduleDetail, model.ScheduleInput]{c: c, path: "/schedules"}
}

// Resource is one collection of the API.  T is the item type returned by
// the server, In the create/update body.
type Resource[T, In any] struct {
	c    *Client
	path string
}

// List fetches the whole collection.
func (r *Resource[T, In]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := r.c.do(ctx, http.MethodGet, r.path, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Create posts in and returns the stored item.
func (r *Resource[T, In]) Create(ctx context.Context, in In) (T, error) {
	var out T
	err := r.c.do(ctx, http.MethodPost, r.path, in, &out)
	return out, err
}

// Update replaces item id with in and returns the stored item.
func (r *Resource[T, In]) Update(ctx context.Context, id int64, in In) (T, error) {
	var out T
	err := r.c.do(ctx, http.MethodPut, r.itemPath(id), in, &out)
	return out, err
}

// Delete removes item id.
func (r *Resource[T, In]) Delete(ctx context.Context, id int64) error {
	return r.c.do(ctx, http.MethodDelete, r.itemPath(id), nil, nil)
}

func (r *Resource[T, In]) itemPath(id int64) string {
	return r.path + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		bs, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(bs)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ae := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &payload) == nil {
			ae.Message = payload.Error
		}
		return ae
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
