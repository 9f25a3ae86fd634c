package identity

import "errors"

// Sentinel error kinds (stable for errors.Is and for mapping to API results).
var (
	// ErrInvalidCredentials is returned by SignIn when the provider rejects
	// the supplied credentials. It is the only error class surfaced to the UI.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrNoSession is returned when no authenticated session exists.
	ErrNoSession = errors.New("no_session")

	// ErrProviderUnavailable is returned when the provider cannot be reached
	// or answers with a server-side failure.
	ErrProviderUnavailable = errors.New("provider_unavailable")
)
