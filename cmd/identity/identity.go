package identity

import (
	"strings"
	"time"
)

// Claims is the set of provider-supplied assertions attached to a principal
// at sign-in time. Values are opaque strings; well-known keys are read through
// the accessors below.
type Claims map[string]string

// Well-known claim keys.
const (
	ClaimRole  = "role"
	ClaimName  = "name"
	ClaimEmail = "email"
)

// Identity is the authenticated principal.
// It is immutable for the lifetime of a session and replaced wholesale on
// sign-in, sign-out, and token refresh.
type Identity struct {
	ID     string
	Claims Claims
}

// Role reads the role claim, defaulting to RoleUser.
func (id Identity) Role() Role {
	return ParseRole(id.Claims[ClaimRole])
}

// Name reads the display-name claim, falling back to the email local part.
func (id Identity) Name() string {
	if n := strings.TrimSpace(id.Claims[ClaimName]); n != "" {
		return n
	}
	email := strings.TrimSpace(id.Claims[ClaimEmail])
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

// Email reads the email claim.
func (id Identity) Email() string {
	return strings.TrimSpace(id.Claims[ClaimEmail])
}

// IsZero reports whether no principal is set.
func (id Identity) IsZero() bool { return id.ID == "" }

// Session is the provider-issued token pair backing an Identity.
type Session struct {
	Identity     Identity
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Credentials is a sign-in request.
type Credentials struct {
	Email    string
	Password string
}

// EventType enumerates the provider event kinds the session manager reacts to.
type EventType string

const (
	// EventSignedIn is emitted after a successful sign-in.
	EventSignedIn EventType = "SIGNED_IN"
	// EventSignedOut is emitted after sign-out; the only event that cascades
	// a full client-side teardown.
	EventSignedOut EventType = "SIGNED_OUT"
	// EventTokenRefreshed is emitted on routine token refresh.
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
	// EventUserUpdated is emitted when the principal's claims changed.
	EventUserUpdated EventType = "USER_UPDATED"
)

// Event is one identity-provider notification.
// Session is present for all kinds except EventSignedOut.
type Event struct {
	Type    EventType
	Session *Session
}
