// Package app wires the Tech-Care client daemon: config, logging, the remote
// service clients, the session/notification cores, and the local control
// surface the UI talks to.
package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/identity"
	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/internal/auth/session"
	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/internal/cache"
	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/internal/notify"
	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/internal/profile"
	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/internal/realtime"
)

// App is the client daemon runtime. It owns the remote clients, the session
// manager, the notification center, and the control HTTP server.
type App struct {
	cfg Config
	log Logger

	store     cache.Store
	dbPool    *pgxpool.Pool
	dbEnabled bool

	provider *identity.HTTPProvider
	loader   *profile.Loader
	channel  *realtime.Client
	manager  *session.Manager
	center   *notify.Center

	loginLimiter *rate.Limiter
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	store, dbPool, dbEnabled, err := newCacheStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		log:       log,
		store:     store,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
	}

	// Remote clients read the token per request, so refreshes take effect
	// without rewiring. The manager does not exist yet at this point; the
	// closure resolves it lazily.
	token := func() string {
		if a.manager == nil {
			return ""
		}
		return a.manager.AccessToken()
	}

	a.provider = identity.NewHTTPProvider(identity.HTTPProviderOptions{
		BaseURL: cfg.AuthBaseURL,
		APIKey:  cfg.AuthAPIKey,
	})

	profileAPI := identity.NewHTTPProfileAPI(identity.HTTPProfileAPIOptions{
		BaseURL: cfg.APIBaseURL,
		Token:   token,
	})
	a.loader = profile.NewLoader(log, profileAPI, store)

	a.channel = realtime.NewClient(realtime.Options{
		URL:         cfg.WSURL,
		AccessToken: token,
		Log:         log,
	})

	a.manager = session.NewManager(log, session.Config{
		InitializeTimeout: cfg.InitializeTimeout,
		AutoRefresh:       cfg.AutoRefresh,
		RefreshMargin:     cfg.RefreshMargin,
		RefreshRetry:      cfg.RefreshRetry,
	}, a.provider, a.loader, a.channel)

	a.center = notify.NewCenter(notify.Options{
		Log:              log,
		API:              notify.NewHTTPAPI(notify.HTTPAPIOptions{BaseURL: cfg.APIBaseURL, Token: token}),
		Channel:          channelAdapter{c: a.channel},
		Alerter:          newAlerter(cfg, log),
		FetchLimit:       cfg.NotifyFetchLimit,
		MinFetchInterval: cfg.NotifyMinFetchInterval,
		DesktopAlerts:    cfg.DesktopAlerts,
		SoundAlerts:      cfg.SoundAlerts,
	})

	a.loginLimiter = rate.NewLimiter(rate.Limit(float64(cfg.LoginRatePerMinute)/60.0), cfg.LoginBurst)

	a.wireSessionToFeed()

	return a, nil
}

// wireSessionToFeed binds the notification feed to session transitions: the
// feed follows whichever principal the snapshot exposes and shuts down on
// sign-out.
func (a *App) wireSessionToFeed() {
	var mu sync.Mutex
	var last string
	a.manager.OnChange(func(snap session.Snapshot) {
		id := snap.Identity.ID

		mu.Lock()
		changed := id != last
		last = id
		mu.Unlock()
		if !changed {
			return
		}

		if id == "" {
			a.center.Stop()
			return
		}
		a.center.Start(context.Background(), id)
	})
}

// Run starts the push channel, restores the session, and serves the control
// surface until context cancellation or a fatal server error.
func (a *App) Run(ctx context.Context) error {
	a.channel.Start(ctx)
	go a.manager.Initialize(ctx)

	mux := http.NewServeMux()
	registerHTTP(mux, a)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(mux, a.log),
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.ReadTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
	}

	a.log.Info("daemon.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("daemon.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("daemon.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("daemon.shutdown.fail", "err", err)
	}

	a.center.Stop()
	a.manager.Dispose()
	a.channel.Close()
	if a.dbPool != nil {
		a.dbPool.Close()
	}

	a.log.Info("daemon.stopped")
	return nil
}

// newCacheStore decides between the Postgres-backed cache and the on-disk
// default.
func newCacheStore(ctx context.Context, cfg Config, log Logger) (cache.Store, *pgxpool.Pool, bool, error) {
	if cfg.DatabaseURL == "" {
		st, err := cache.NewFileStore(cfg.CacheDir)
		if err != nil {
			return nil, nil, false, err
		}
		log.Info("cache.file_store", "dir", cfg.CacheDir)
		return st, nil, false, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, false, err
	}

	st, err := cache.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, err
	}

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := st.Init(initCtx); err != nil {
		pool.Close()
		return nil, nil, false, err
	}

	log.Info("cache.postgres_store")
	return st, pool, true, nil
}

// newAlerter picks the desktop alerter when any alert kind is enabled.
func newAlerter(cfg Config, log Logger) notify.Alerter {
	if !cfg.DesktopAlerts && !cfg.SoundAlerts {
		return notify.NopAlerter{}
	}
	return notify.ExecAlerter{Log: log, SoundFile: cfg.AlertSoundFile}
}

// channelAdapter narrows *realtime.Client to the feed's Channel surface.
// The indirection keeps a nil subscription from turning into a non-nil
// interface value.
type channelAdapter struct {
	c *realtime.Client
}

func (a channelAdapter) Subscribe(topic string, h realtime.Handlers) notify.Subscription {
	sub := a.c.Subscribe(topic, h)
	if sub == nil {
		return nil
	}
	return sub
}
