package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// API is the remote notification store boundary.
type API interface {
	// List returns the newest notifications for a principal,
	// ordered by created_at descending.
	List(ctx context.Context, identityID string, limit int) ([]Notification, error)

	// MarkRead flags a single notification as read.
	MarkRead(ctx context.Context, id string) error

	// MarkAllRead flags every unread notification for a principal as read.
	MarkAllRead(ctx context.Context, identityID string) error

	// Delete removes a notification.
	Delete(ctx context.Context, id string) error
}

// HTTPAPIOptions configures an HTTPAPI.
type HTTPAPIOptions struct {
	BaseURL    string
	HTTPClient *http.Client

	// Token supplies the access token attached to every request.
	Token func() string
}

// HTTPAPI talks to the Tech-Care notification service over HTTP.
type HTTPAPI struct {
	baseURL string
	client  *http.Client
	token   func() string
}

// NewHTTPAPI constructs an HTTPAPI with safe defaults.
func NewHTTPAPI(opts HTTPAPIOptions) *HTTPAPI {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	token := opts.Token
	if token == nil {
		token = func() string { return "" }
	}
	return &HTTPAPI{
		baseURL: strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		client:  client,
		token:   token,
	}
}

// List implements API.
func (a *HTTPAPI) List(ctx context.Context, identityID string, limit int) ([]Notification, error) {
	q := url.Values{}
	q.Set("user_id", identityID)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("order", "created_at.desc")

	var out []Notification
	if err := a.do(ctx, http.MethodGet, "/rest/v1/notifications?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead implements API.
func (a *HTTPAPI) MarkRead(ctx context.Context, id string) error {
	body := map[string]any{"read": true}
	return a.do(ctx, http.MethodPatch, "/rest/v1/notifications/"+url.PathEscape(id), body, nil)
}

// MarkAllRead implements API.
func (a *HTTPAPI) MarkAllRead(ctx context.Context, identityID string) error {
	body := map[string]any{"user_id": identityID, "read": true}
	return a.do(ctx, http.MethodPost, "/rest/v1/notifications/mark_all_read", body, nil)
}

// Delete implements API.
func (a *HTTPAPI) Delete(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/rest/v1/notifications/"+url.PathEscape(id), nil, nil)
}

func (a *HTTPAPI) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := strings.TrimSpace(a.token()); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification %s %s failed: status=%d", method, path, resp.StatusCode)
	}
	if out != nil {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode notification body: %w", err)
		}
	}
	return nil
}
