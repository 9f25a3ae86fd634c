package identity

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

// Provider is the remote identity-provider boundary.
//
// Implementations authenticate principals and hand out token-backed sessions.
// The session manager treats every Provider error except ErrInvalidCredentials
// as transient.
type Provider interface {
	// CurrentSession returns the existing session, if any.
	// A missing session is reported via ErrNoSession, not a nil error.
	CurrentSession(ctx context.Context) (Session, error)

	// SignIn exchanges credentials for a fresh session.
	SignIn(ctx context.Context, creds Credentials) (Session, error)

	// SignOut invalidates the current session server-side.
	SignOut(ctx context.Context) error

	// Refresh rotates the token pair for the current session.
	Refresh(ctx context.Context) (Session, error)
}

// HTTPProviderOptions configures an HTTPProvider.
type HTTPProviderOptions struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// HTTPProvider talks to the Tech-Care auth gateway over HTTP.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client

	// Last issued refresh token; the gateway requires it for refresh/sign-out.
	// Guarded by mu: Refresh runs on the manager's timer goroutine while
	// SignIn/SignOut/CurrentSession run on caller goroutines.
	mu           sync.Mutex
	refreshToken string
}

func (p *HTTPProvider) setRefreshToken(tok string) {
	p.mu.Lock()
	p.refreshToken = tok
	p.mu.Unlock()
}

func (p *HTTPProvider) currentRefreshToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshToken
}

// NewHTTPProvider constructs an HTTPProvider with safe defaults.
func NewHTTPProvider(opts HTTPProviderOptions) *HTTPProvider {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(opts.APIKey),
		client:  client,
	}
}

type wireSession struct {
	UserID       string            `json:"user_id"`
	Claims       map[string]string `json:"claims"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	ExpiresAt    time.Time         `json:"expires_at"`
}

func (w wireSession) toSession() Session {
	claims := w.Claims
	if claims == nil {
		claims = map[string]string{}
	}
	return Session{
		Identity:     Identity{ID: w.UserID, Claims: claims},
		AccessToken:  w.AccessToken,
		RefreshToken: w.RefreshToken,
		ExpiresAt:    w.ExpiresAt,
	}
}

// CurrentSession implements Provider.
func (p *HTTPProvider) CurrentSession(ctx context.Context) (Session, error) {
	var out wireSession
	status, err := p.do(ctx, http.MethodGet, "/auth/v1/session", nil, &out)
	if err != nil {
		return Session{}, err
	}
	switch {
	case status == http.StatusOK:
		sess := out.toSession()
		p.setRefreshToken(sess.RefreshToken)
		return sess, nil
	case status == http.StatusUnauthorized || status == http.StatusNotFound:
		return Session{}, ErrNoSession
	default:
		return Session{}, fmt.Errorf("%w: session status=%d", ErrProviderUnavailable, status)
	}
}

// SignIn implements Provider.
func (p *HTTPProvider) SignIn(ctx context.Context, creds Credentials) (Session, error) {
	body := map[string]string{"email": creds.Email, "password": creds.Password}
	var out wireSession
	status, err := p.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", body, &out)
	if err != nil {
		return Session{}, err
	}
	switch {
	case status == http.StatusOK:
		sess := out.toSession()
		p.setRefreshToken(sess.RefreshToken)
		return sess, nil
	case status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Session{}, ErrInvalidCredentials
	default:
		return Session{}, fmt.Errorf("%w: sign-in status=%d", ErrProviderUnavailable, status)
	}
}

// SignOut implements Provider.
func (p *HTTPProvider) SignOut(ctx context.Context) error {
	status, err := p.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil)
	p.setRefreshToken("")
	if err != nil {
		return err
	}
	if status >= 200 && status <= 299 {
		return nil
	}
	return fmt.Errorf("%w: sign-out status=%d", ErrProviderUnavailable, status)
}

// Refresh implements Provider.
func (p *HTTPProvider) Refresh(ctx context.Context) (Session, error) {
	tok := p.currentRefreshToken()
	if strings.TrimSpace(tok) == "" {
		return Session{}, ErrNoSession
	}
	body := map[string]string{"refresh_token": tok}
	var out wireSession
	status, err := p.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", body, &out)
	if err != nil {
		return Session{}, err
	}
	switch {
	case status == http.StatusOK:
		sess := out.toSession()
		p.setRefreshToken(sess.RefreshToken)
		return sess, nil
	case status == http.StatusUnauthorized:
		return Session{}, ErrNoSession
	default:
		return Session{}, fmt.Errorf("%w: refresh status=%d", ErrProviderUnavailable, status)
	}
}

func (p *HTTPProvider) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, rd)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.apiKey != "" {
		req.Header.Set("X-Api-Key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: read body: %v", ErrProviderUnavailable, err)
	}

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: decode body: %v", ErrProviderUnavailable, err)
		}
	}
	return resp.StatusCode, nil
}
