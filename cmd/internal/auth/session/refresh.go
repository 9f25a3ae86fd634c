package session

import (
	"context"
	"errors"
	"time"

	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/identity"
)

const refreshMinDelay = 5 * time.Second

// scheduleRefresh (re)arms the background token refresh for the current
// session. No-op when auto refresh is disabled or no expiry is known.
func (m *Manager) scheduleRefresh() {
	if !m.cfg.AutoRefresh {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed || m.sess.Identity.IsZero() || m.sess.ExpiresAt.IsZero() {
		return
	}
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
	}

	delay := time.Until(m.sess.ExpiresAt) - m.cfg.RefreshMargin
	if delay < refreshMinDelay {
		delay = refreshMinDelay
	}

	epoch := m.epoch
	m.refreshTimer = time.AfterFunc(delay, func() {
		m.runRefresh(epoch)
	})
}

// runRefresh performs one token rotation and feeds the outcome back through
// the provider-event path.
func (m *Manager) runRefresh(epoch uint64) {
	m.mu.Lock()
	if m.disposed || m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	if m.state == StateAuthenticated {
		m.state = StateRefreshing
	}
	m.mu.Unlock()
	m.notify()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sess, err := m.provider.Refresh(ctx)
	if err != nil {
		if errors.Is(err, identity.ErrNoSession) {
			// The provider no longer recognizes the session; sign out.
			m.log.Info("session.refresh.rejected")
			m.HandleProviderEvent(ctx, identity.Event{Type: identity.EventSignedOut})
			return
		}

		// Transient failure: restore state and retry shortly.
		m.log.Info("session.refresh.fail", "err", err)
		m.mu.Lock()
		if m.state == StateRefreshing {
			m.state = StateAuthenticated
		}
		if !m.disposed && m.epoch == epoch {
			if m.refreshTimer != nil {
				m.refreshTimer.Stop()
			}
			m.refreshTimer = time.AfterFunc(m.cfg.RefreshRetry, func() {
				m.runRefresh(epoch)
			})
		}
		m.mu.Unlock()
		m.notify()
		return
	}

	m.HandleProviderEvent(ctx, identity.Event{Type: identity.EventTokenRefreshed, Session: &sess})
}
