package session

import "time"

// Config tunes the session manager.
type Config struct {
	// InitializeTimeout bounds how long Initialize may leave the snapshot in
	// loading state. When it fires, loading is forced off with whatever
	// best-effort data is present (availability over freshness).
	InitializeTimeout time.Duration

	// AutoRefresh enables the background token refresh loop.
	AutoRefresh bool

	// RefreshMargin is how long before access-token expiry a refresh runs.
	RefreshMargin time.Duration

	// RefreshRetry is the delay before retrying a transiently failed refresh.
	RefreshRetry time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		InitializeTimeout: 5 * time.Second,
		AutoRefresh:       true,
		RefreshMargin:     1 * time.Minute,
		RefreshRetry:      30 * time.Second,
	}
}

// normalize fills zero fields with defaults.
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.InitializeTimeout <= 0 {
		c.InitializeTimeout = def.InitializeTimeout
	}
	if c.RefreshMargin <= 0 {
		c.RefreshMargin = def.RefreshMargin
	}
	if c.RefreshRetry <= 0 {
		c.RefreshRetry = def.RefreshRetry
	}
	return c
}
