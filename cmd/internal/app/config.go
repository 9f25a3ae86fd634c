package app

import (
	"os"
	"path/filepath"
	"time"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	// HTTPAddr is the bind address of the local control surface. The daemon
	// serves UI-facing state on loopback only by default.
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// Remote service endpoints.
	AuthBaseURL string
	AuthAPIKey  string
	APIBaseURL  string
	WSURL       string

	// CacheDir holds the on-disk profile cache. Ignored when DatabaseURL is
	// set; then the cache lives in Postgres instead.
	CacheDir    string
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Session lifecycle tuning.
	InitializeTimeout time.Duration
	AutoRefresh       bool
	RefreshMargin     time.Duration
	RefreshRetry      time.Duration

	// Notification feed tuning.
	NotifyFetchLimit       int
	NotifyMinFetchInterval time.Duration
	DesktopAlerts          bool
	SoundAlerts            bool
	AlertSoundFile         string

	// Login throttle for the control surface (requests per minute + burst).
	LoginRatePerMinute int
	LoginBurst         int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("TECHCARE_HTTP_ADDR", "127.0.0.1:8787"),
		LogLevel:  EnvString("TECHCARE_LOG_LEVEL", "info"),
		LogFormat: EnvString("TECHCARE_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("TECHCARE_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("TECHCARE_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("TECHCARE_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("TECHCARE_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("TECHCARE_HTTP_MAX_HEADER_BYTES", 1<<20),

		AuthBaseURL: EnvString("TECHCARE_AUTH_BASE_URL", "http://127.0.0.1:9999"),
		AuthAPIKey:  EnvString("TECHCARE_AUTH_API_KEY", ""),
		APIBaseURL:  EnvString("TECHCARE_API_BASE_URL", "http://127.0.0.1:9999"),
		WSURL:       EnvString("TECHCARE_WS_URL", "ws://127.0.0.1:9999/realtime/v1"),

		CacheDir:    EnvString("TECHCARE_CACHE_DIR", defaultCacheDir()),
		DatabaseURL: EnvString("TECHCARE_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("TECHCARE_DB_MAX_CONNS", 4),
		DBMinConns:  EnvInt32("TECHCARE_DB_MIN_CONNS", 0),

		InitializeTimeout: EnvDuration("TECHCARE_SESSION_INITIALIZE_TIMEOUT", 5*time.Second),
		AutoRefresh:       EnvBool("TECHCARE_SESSION_AUTO_REFRESH", true),
		RefreshMargin:     EnvDuration("TECHCARE_SESSION_REFRESH_MARGIN", time.Minute),
		RefreshRetry:      EnvDuration("TECHCARE_SESSION_REFRESH_RETRY", 30*time.Second),

		NotifyFetchLimit:       EnvInt("TECHCARE_NOTIFY_FETCH_LIMIT", 50),
		NotifyMinFetchInterval: EnvDuration("TECHCARE_NOTIFY_MIN_FETCH_INTERVAL", 5*time.Second),
		DesktopAlerts:          EnvBool("TECHCARE_DESKTOP_ALERTS", true),
		SoundAlerts:            EnvBool("TECHCARE_SOUND_ALERTS", false),
		AlertSoundFile:         EnvString("TECHCARE_ALERT_SOUND_FILE", ""),

		LoginRatePerMinute: EnvInt("TECHCARE_LOGIN_RATE_PER_MINUTE", 10),
		LoginBurst:         EnvInt("TECHCARE_LOGIN_BURST", 3),
	}
}

// defaultCacheDir resolves the per-user cache location, falling back to the
// working directory when the platform dir is unavailable.
func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return ".techcare-cache"
	}
	return filepath.Join(base, "techcare")
}
