package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ProfileAPI is the remote profile boundary.
//
// Both lookups report "absent" via the ok result instead of an error so
// callers can distinguish a missing row from a failed fetch.
type ProfileAPI interface {
	// GetBaseProfile resolves the role-tagged base record for a principal.
	GetBaseProfile(ctx context.Context, id string) (Profile, bool, error)

	// GetExtendedProfile resolves role-specific detail for a principal.
	// Roles without an extended record yield ok=false with a nil error.
	GetExtendedProfile(ctx context.Context, id string, role Role) (ExtendedProfile, bool, error)
}

// HTTPProfileAPIOptions configures an HTTPProfileAPI.
type HTTPProfileAPIOptions struct {
	BaseURL    string
	HTTPClient *http.Client

	// Token supplies the access token attached to every request.
	// It is read per-request so token refresh takes effect without rewiring.
	Token func() string
}

// HTTPProfileAPI talks to the Tech-Care profile service over HTTP.
type HTTPProfileAPI struct {
	baseURL string
	client  *http.Client
	token   func() string
}

// NewHTTPProfileAPI constructs an HTTPProfileAPI with safe defaults.
func NewHTTPProfileAPI(opts HTTPProfileAPIOptions) *HTTPProfileAPI {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	token := opts.Token
	if token == nil {
		token = func() string { return "" }
	}
	return &HTTPProfileAPI{
		baseURL: strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		client:  client,
		token:   token,
	}
}

// GetBaseProfile implements ProfileAPI.
func (a *HTTPProfileAPI) GetBaseProfile(ctx context.Context, id string) (Profile, bool, error) {
	var p Profile
	ok, err := a.get(ctx, "/rest/v1/profiles/"+url.PathEscape(id), &p)
	if err != nil {
		return Profile{}, false, err
	}
	return p, ok, nil
}

// GetExtendedProfile implements ProfileAPI.
func (a *HTTPProfileAPI) GetExtendedProfile(ctx context.Context, id string, role Role) (ExtendedProfile, bool, error) {
	switch role {
	case RoleTechnician:
		var d TechnicianDetail
		ok, err := a.get(ctx, "/rest/v1/technicians/"+url.PathEscape(id), &d)
		if err != nil || !ok {
			return ExtendedProfile{}, false, err
		}
		return ExtendedProfile{Technician: &d}, true, nil
	case RoleCustomer:
		var d CustomerDetail
		ok, err := a.get(ctx, "/rest/v1/customers/"+url.PathEscape(id), &d)
		if err != nil || !ok {
			return ExtendedProfile{}, false, err
		}
		return ExtendedProfile{Customer: &d}, true, nil
	default:
		return ExtendedProfile{}, false, nil
	}
}

// get returns ok=false for 404, decodes into out for 200, and errors otherwise.
func (a *HTTPProfileAPI) get(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return false, err
	}
	if tok := strings.TrimSpace(a.token()); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return false, err
		}
		if err := json.Unmarshal(data, out); err != nil {
			return false, fmt.Errorf("decode profile body: %w", err)
		}
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("profile fetch failed: status=%d", resp.StatusCode)
	}
}
