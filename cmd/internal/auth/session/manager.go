package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/identity"
	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/internal/profile"
)

// ProfileLoader is the loading surface the manager needs.
// *profile.Loader satisfies it.
type ProfileLoader interface {
	Load(ctx context.Context, ident identity.Identity, publish func(profile.Result)) bool
	Cached(ctx context.Context, ident identity.Identity) (profile.Result, bool)
}

// ChannelCredentials is the credential-refresh surface of the push channel.
// *realtime.Client satisfies it.
type ChannelCredentials interface {
	RefreshCredentials()
}

// LoginResult is the structured outcome of a Login call.
// Authentication failures are surfaced here, never as a panic or snapshot
// error state.
type LoginResult struct {
	OK  bool
	Err error
}

// Manager owns the identity/authentication state machine.
//
// The mutex guards all fields and is never held across a remote call; every
// asynchronous commit carries the epoch it was started under and is discarded
// on mismatch, so work belonging to a torn-down session cannot corrupt a
// newer one.
type Manager struct {
	log      *slog.Logger
	cfg      Config
	provider identity.Provider
	loader   ProfileLoader
	channel  ChannelCredentials

	mu        sync.Mutex
	state     State
	sess      identity.Session
	prof      identity.Profile
	ext       *identity.ExtendedProfile
	loading   bool
	epoch     uint64
	listeners []Listener

	refreshTimer *time.Timer
	disposed     bool
}

// NewManager constructs a Manager. channel may be nil when no push channel
// is wired (tests, offline tooling).
func NewManager(log *slog.Logger, cfg Config, provider identity.Provider, loader ProfileLoader, channel ChannelCredentials) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		log:      log,
		cfg:      cfg.normalize(),
		provider: provider,
		loader:   loader,
		channel:  channel,
		state:    StateInit,
	}
}

// OnChange registers a snapshot listener. Registration order is call order.
func (m *Manager) OnChange(fn Listener) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Snapshot returns the current read state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// AccessToken returns the current access token, or "" when signed out.
// API clients read it per request so refreshes take effect immediately.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.AccessToken
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		State:    m.state,
		Identity: m.sess.Identity,
		Profile:  m.prof,
		Extended: m.ext,
		Loading:  m.loading,
	}
}

// notify runs listeners with a snapshot taken outside the lock.
func (m *Manager) notify() {
	m.mu.Lock()
	snap := m.snapshotLocked()
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// Initialize queries the provider for an existing session and settles the
// snapshot. When a session exists it synchronously exposes a best-effort
// profile (cache if present, claims otherwise) so the UI renders at once,
// then resolves ground truth in the background. Loading is force-cleared
// after InitializeTimeout no matter what; the UI never hangs on startup.
func (m *Manager) Initialize(ctx context.Context) {
	m.mu.Lock()
	m.loading = true
	epoch := m.epoch
	m.mu.Unlock()
	m.notify()

	// The timer outlives this call on purpose: adoption starts a background
	// load under a fresh epoch, and the startup bound covers that too.
	time.AfterFunc(m.cfg.InitializeTimeout, m.forceSettleAny)

	sess, err := m.provider.CurrentSession(ctx)
	if err != nil {
		if !errors.Is(err, identity.ErrNoSession) {
			m.log.Info("session.initialize.provider_fail", "err", err)
		}
		m.mu.Lock()
		if m.epoch == epoch {
			m.state = StateUnauthenticated
			m.loading = false
		}
		m.mu.Unlock()
		m.notify()
		return
	}

	m.adoptSession(ctx, sess)
}

// HandleProviderEvent reacts to one identity-provider event.
func (m *Manager) HandleProviderEvent(ctx context.Context, ev identity.Event) {
	switch ev.Type {
	case identity.EventSignedIn:
		if ev.Session == nil {
			return
		}
		m.adoptSession(ctx, *ev.Session)

	case identity.EventSignedOut:
		m.teardown()

	case identity.EventTokenRefreshed:
		if ev.Session == nil {
			return
		}
		// Tokens and claims are replaced; the profile is deliberately not
		// reloaded on routine refresh. The push channel gets the new
		// credentials so its topics stay authorized.
		m.mu.Lock()
		m.sess = *ev.Session
		if m.state == StateRefreshing {
			m.state = StateAuthenticated
		}
		m.mu.Unlock()
		m.notify()

		if m.channel != nil {
			m.channel.RefreshCredentials()
		}
		m.scheduleRefresh()

	case identity.EventUserUpdated:
		if ev.Session == nil {
			return
		}
		m.mu.Lock()
		m.sess = *ev.Session
		m.loading = true
		epoch := m.epoch
		m.mu.Unlock()
		m.notify()

		go m.loadProfile(ctx, ev.Session.Identity, epoch)
	}
}

// Login signs in with credentials. On success the identity is exposed
// immediately and the profile resolves in the background; the result does
// not wait for it. On failure nothing changes and the error is returned as
// data for the form.
func (m *Manager) Login(ctx context.Context, creds identity.Credentials) LoginResult {
	sess, err := m.provider.SignIn(ctx, creds)
	if err != nil {
		m.log.Info("session.login.fail", "err", err)
		return LoginResult{OK: false, Err: err}
	}

	m.log.Info("session.login", "identity_id", sess.Identity.ID)
	m.HandleProviderEvent(ctx, identity.Event{Type: identity.EventSignedIn, Session: &sess})
	return LoginResult{OK: true}
}

// Logout signs out remotely and resets client state regardless of the remote
// outcome. From the user's point of view logout never fails.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.provider.SignOut(ctx); err != nil {
		m.log.Info("session.logout.remote_fail", "err", err)
	}
	m.teardown()
}

// RefreshUser re-reads the current remote session and, when one exists,
// forces a fresh profile load.
func (m *Manager) RefreshUser(ctx context.Context) {
	sess, err := m.provider.CurrentSession(ctx)
	if err != nil {
		m.log.Info("session.refresh_user.fail", "err", err)
		return
	}

	m.mu.Lock()
	m.sess = sess
	m.state = StateAuthenticated
	m.loading = true
	epoch := m.epoch
	m.mu.Unlock()
	m.notify()

	go m.loadProfile(ctx, sess.Identity, epoch)
}

// Dispose stops background work. The manager must not be used afterwards.
func (m *Manager) Dispose() {
	m.mu.Lock()
	m.disposed = true
	m.epoch++
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
	m.mu.Unlock()
}

// ---- transitions ----

// adoptSession installs a signed-in session: identity is exposed right away
// with a best-effort profile, ground truth follows in the background.
func (m *Manager) adoptSession(ctx context.Context, sess identity.Session) {
	best := profile.Result{Profile: identity.MinimalProfile(sess.Identity), Source: profile.SourceClaims}
	if cached, ok := m.loader.Cached(ctx, sess.Identity); ok {
		best = cached
	}

	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.epoch++
	epoch := m.epoch
	m.sess = sess
	m.state = StateAuthenticated
	m.prof = best.Profile
	m.ext = best.Extended
	m.loading = true
	m.mu.Unlock()
	m.notify()

	m.scheduleRefresh()
	go m.loadProfile(ctx, sess.Identity, epoch)
}

// teardown is the SIGNED_OUT cascade: the only transition that clears
// everything. The cache entry stays on disk for offline reuse.
func (m *Manager) teardown() {
	m.mu.Lock()
	m.epoch++
	m.sess = identity.Session{}
	m.prof = identity.Profile{}
	m.ext = nil
	m.state = StateUnauthenticated
	m.loading = false
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
	m.mu.Unlock()

	m.log.Info("session.signed_out")
	m.notify()
}

// loadProfile runs one background load and commits results under the epoch
// it was started for.
func (m *Manager) loadProfile(ctx context.Context, ident identity.Identity, epoch uint64) {
	started := m.loader.Load(ctx, ident, func(res profile.Result) {
		m.commitProfile(epoch, res)
	})
	if !started {
		// A load is already in flight. Settle loading rather than leaving the
		// snapshot spinning; the in-flight load's publish is epoch-checked.
		m.forceSettle(epoch)
	}
}

// commitProfile applies a loader publish unless the session moved on.
func (m *Manager) commitProfile(epoch uint64, res profile.Result) {
	m.mu.Lock()
	if m.disposed || m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	m.prof = res.Profile
	m.ext = res.Extended
	if res.Final {
		m.loading = false
	}
	m.mu.Unlock()
	m.notify()
}

// forceSettle clears loading for the given epoch with whatever data exists.
func (m *Manager) forceSettle(epoch uint64) {
	m.mu.Lock()
	if m.disposed || m.epoch != epoch || !m.loading {
		m.mu.Unlock()
		return
	}
	m.loading = false
	m.mu.Unlock()

	m.log.Info("session.settle.forced")
	m.notify()
}

// forceSettleAny clears loading regardless of epoch. Only the startup bound
// uses it: whatever session is active when it fires, the UI must settle.
func (m *Manager) forceSettleAny() {
	m.mu.Lock()
	if m.disposed || !m.loading {
		m.mu.Unlock()
		return
	}
	m.loading = false
	m.mu.Unlock()

	m.log.Info("session.settle.forced")
	m.notify()
}
