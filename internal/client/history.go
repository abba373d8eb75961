package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// History reads and prunes the caller's own jobs.
type History struct {
	c *Client
}

func NewHistory(c *Client) *History { return &History{c: c} }

// List returns up to limit jobs, newest first. limit <= 0 uses the server default.
func (h *History) List(ctx context.Context, limit int) ([]Job, error) {
	path := "/api/v1/jobs"
	if limit > 0 {
		path += "?" + url.Values{"limit": {fmt.Sprint(limit)}}.Encode()
	}
	var out struct {
		Items []Job `json:"items"`
	}
	if err := h.c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (h *History) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	if err := h.c.do(ctx, http.MethodGet, "/api/v1/jobs/"+url.PathEscape(id), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (h *History) Delete(ctx context.Context, id string) error {
	return h.c.do(ctx, http.MethodDelete, "/api/v1/jobs/"+url.PathEscape(id), nil, nil)
}

// Clear deletes every job of the caller and reports how many were removed.
func (h *History) Clear(ctx context.Context) (int64, error) {
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := h.c.do(ctx, http.MethodDelete, "/api/v1/jobs", nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

// Logout revokes the client's token on the server.
func (h *History) Logout(ctx context.Context) error {
	return h.c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
}
