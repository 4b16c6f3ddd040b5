// Package rest is the request/response store adapter. Every mutation is
// a single HTTP call; callers re-fetch the list to see its effect.
package rest

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

	"github.com/idilsaglam/todo/internal/model"
	"github.com/idilsaglam/todo/internal/store"
)

// APIError is a non-2xx response. Message comes from the body's "error"
// field, or the status text when the body has none.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// Is lets errors.Is(err, store.ErrNotFound) match a 404.
func (e *APIError) Is(target error) bool {
	return target == store.ErrNotFound && e.Status == http.StatusNotFound
}

type Client struct {
	base *url.URL
	http *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New returns a client for the collection at baseURL, for example
// http://localhost:8080/api/todos.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: 15 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) FetchAll(ctx context.Context) ([]model.Item, error) {
	var recs []record
	if err := c.do(ctx, http.MethodGet, c.base, nil, &recs); err != nil {
		return nil, fmt.Errorf("fetch todos: %w", err)
	}
	out, err := items(recs)
	if err != nil {
		return nil, fmt.Errorf("fetch todos: %w", err)
	}
	return out, nil
}

func (c *Client) Add(ctx context.Context, title string) (model.Item, error) {
	title, err := store.PrepareTitle(title)
	if err != nil {
		return model.Item{}, err
	}
	body := map[string]string{"title": title, "description": ""}
	var rec record
	if err := c.do(ctx, http.MethodPost, c.base, body, &rec); err != nil {
		return model.Item{}, fmt.Errorf("add todo: %w", err)
	}
	it, err := rec.item()
	if err != nil {
		return model.Item{}, fmt.Errorf("add todo: %w", err)
	}
	return it, nil
}

func (c *Client) Update(ctx context.Context, id string, p model.Patch) (model.Item, error) {
	p, err := store.PreparePatch(p)
	if err != nil {
		return model.Item{}, err
	}
	var rec record
	if err := c.do(ctx, http.MethodPut, c.base.JoinPath(id), p, &rec); err != nil {
		return model.Item{}, fmt.Errorf("update todo %s: %w", id, err)
	}
	it, err := rec.item()
	if err != nil {
		// some backends answer a PUT with a bare acknowledgement
		return model.Item{ID: id}, nil
	}
	return it, nil
}

func (c *Client) Remove(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, c.base.JoinPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete todo %s: %w", id, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method string, u *url.URL, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("json marshal: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}

func apiError(status int, raw []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(status)
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{Status: status, Message: msg}
}

// IsAPIError reports whether err carries an APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
