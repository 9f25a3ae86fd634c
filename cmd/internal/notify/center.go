package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/internal/realtime"
)

const (
	defaultFetchLimit       = 50
	defaultMinFetchInterval = 5 * time.Second
)

// Subscription is the disposable handle surface the Center needs from the
// push channel.
type Subscription interface {
	Unsubscribe()
}

// Channel is the push-subscription surface the Center needs from the
// realtime client.
type Channel interface {
	Subscribe(topic string, h realtime.Handlers) Subscription
}

// Options configures a Center.
type Options struct {
	Log     *slog.Logger
	API     API
	Channel Channel
	Alerter Alerter

	FetchLimit       int
	MinFetchInterval time.Duration

	DesktopAlerts bool
	SoundAlerts   bool
}

// Center reconciles the notification feed for the active identity.
//
// All state is guarded by one mutex that is never held across remote calls;
// every asynchronous commit re-checks the identity it was started for, so a
// torn-down identity's in-flight work cannot leak into a newer one.
type Center struct {
	log     *slog.Logger
	api     API
	channel Channel
	alerter Alerter

	fetchLimit       int
	minFetchInterval time.Duration
	desktopAlerts    bool
	soundAlerts      bool

	// now is swappable for rate-limit tests.
	now func() time.Time

	mu         sync.Mutex
	identityID string
	sub        Subscription
	list       []Notification
	unread     int
	lastFetch  time.Time
}

// NewCenter constructs a Center with safe defaults.
func NewCenter(opts Options) *Center {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	alerter := opts.Alerter
	if alerter == nil {
		alerter = NopAlerter{}
	}
	fetchLimit := opts.FetchLimit
	if fetchLimit <= 0 {
		fetchLimit = defaultFetchLimit
	}
	minInterval := opts.MinFetchInterval
	if minInterval <= 0 {
		minInterval = defaultMinFetchInterval
	}

	return &Center{
		log:              log,
		api:              opts.API,
		channel:          opts.Channel,
		alerter:          alerter,
		fetchLimit:       fetchLimit,
		minFetchInterval: minInterval,
		desktopAlerts:    opts.DesktopAlerts,
		soundAlerts:      opts.SoundAlerts,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Start binds the Center to an identity: it clears any previous feed, tears
// the old topic subscription down fully, subscribes to the new identity's
// topic, and kicks off the initial fetch in the background.
func (c *Center) Start(ctx context.Context, identityID string) {
	c.mu.Lock()
	old := c.sub
	c.sub = nil
	c.identityID = identityID
	c.list = nil
	c.unread = 0
	c.lastFetch = time.Time{}
	c.mu.Unlock()

	unreadGauge.Set(0)

	// Teardown strictly precedes the new subscription: overlapping topics for
	// different identities would leak one account's data into another.
	if old != nil {
		old.Unsubscribe()
	}
	if identityID == "" || c.channel == nil {
		return
	}

	sub := c.channel.Subscribe(TopicFor(identityID), realtime.Handlers{
		OnInsert: func(_ string, row json.RawMessage) { c.onInsert(identityID, row) },
		OnUpdate: func(_ string, row, _ json.RawMessage) { c.onUpdate(identityID, row) },
		OnDelete: func(_ string, old json.RawMessage) { c.onDelete(identityID, old) },
	})

	c.mu.Lock()
	if c.identityID != identityID {
		// Identity changed while subscribing; drop the late subscription.
		c.mu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
		return
	}
	c.sub = sub
	c.mu.Unlock()

	go c.Fetch(ctx, true)
}

// Stop tears down the active subscription and clears the feed.
func (c *Center) Stop() {
	c.Start(context.Background(), "")
}

// Notifications returns a copy of the feed, newest first.
func (c *Center) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, len(c.list))
	copy(out, c.list)
	return out
}

// UnreadCount returns the current unread counter.
func (c *Center) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// Fetch performs the authoritative resync.
//
// Unless force is set, a fetch within MinFetchInterval of the previous one
// (forced or not) is skipped entirely; bursts of UI-triggered refreshes
// collapse into a single remote call. A successful fetch replaces the list
// and recomputes the unread counter exactly. Failures are absorbed: the feed
// keeps its last state.
func (c *Center) Fetch(ctx context.Context, force bool) {
	c.mu.Lock()
	id := c.identityID
	if id == "" {
		c.mu.Unlock()
		return
	}
	now := c.now()
	if !force && !c.lastFetch.IsZero() && now.Sub(c.lastFetch) < c.minFetchInterval {
		c.mu.Unlock()
		fetchesTotal.WithLabelValues("skipped").Inc()
		return
	}
	c.lastFetch = now
	c.mu.Unlock()

	items, err := c.api.List(ctx, id, c.fetchLimit)
	if err != nil {
		fetchesTotal.WithLabelValues("error").Inc()
		c.log.Info("notify.fetch.fail", "identity_id", id, "err", err)
		return
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	unread := 0
	for _, n := range items {
		if !n.Read {
			unread++
		}
	}

	c.mu.Lock()
	if c.identityID != id {
		// Identity changed mid-flight; the result belongs to a dead session.
		c.mu.Unlock()
		return
	}
	c.list = items
	c.unread = unread
	c.mu.Unlock()

	fetchesTotal.WithLabelValues("ok").Inc()
	unreadGauge.Set(float64(unread))
}

// MarkAsRead flips one entry optimistically and issues the remote write.
// The counter never waits for (or rolls back on) the remote result.
func (c *Center) MarkAsRead(ctx context.Context, id string) {
	c.mu.Lock()
	for i := range c.list {
		if c.list[i].ID == id {
			if !c.list[i].Read {
				c.list[i].Read = true
				c.decUnreadLocked()
			}
			break
		}
	}
	unread := c.unread
	c.mu.Unlock()
	unreadGauge.Set(float64(unread))

	if err := c.api.MarkRead(ctx, id); err != nil {
		c.log.Info("notify.mark_read.fail", "id", id, "err", err)
	}
}

// MarkAllAsRead flips every entry optimistically and issues the bulk write.
// The counter is forced to zero immediately; calling it again is harmless.
func (c *Center) MarkAllAsRead(ctx context.Context) {
	c.mu.Lock()
	id := c.identityID
	for i := range c.list {
		c.list[i].Read = true
	}
	c.unread = 0
	c.mu.Unlock()
	unreadGauge.Set(0)

	if id == "" {
		return
	}
	if err := c.api.MarkAllRead(ctx, id); err != nil {
		c.log.Info("notify.mark_all_read.fail", "identity_id", id, "err", err)
	}
}

// Delete removes an entry locally and remotely.
func (c *Center) Delete(ctx context.Context, id string) {
	c.mu.Lock()
	for i := range c.list {
		if c.list[i].ID == id {
			if !c.list[i].Read {
				c.decUnreadLocked()
			}
			c.list = append(c.list[:i], c.list[i+1:]...)
			break
		}
	}
	unread := c.unread
	c.mu.Unlock()
	unreadGauge.Set(float64(unread))

	if err := c.api.Delete(ctx, id); err != nil {
		c.log.Info("notify.delete.fail", "id", id, "err", err)
	}
}

// ---- push event folding ----

// onInsert prepends a pushed notification and raises best-effort alerts.
func (c *Center) onInsert(forIdentity string, row json.RawMessage) {
	var n Notification
	if err := json.Unmarshal(row, &n); err != nil || n.ID == "" {
		c.log.Info("notify.push.insert.bad_row", "err", err)
		return
	}

	c.mu.Lock()
	if c.identityID != forIdentity {
		c.mu.Unlock()
		return
	}
	// Dedupe against a racing fetch that already included this row.
	for i := range c.list {
		if c.list[i].ID == n.ID {
			c.mu.Unlock()
			return
		}
	}
	c.list = append([]Notification{n}, c.list...)
	c.unread++
	unread := c.unread
	desktop, sound := c.desktopAlerts, c.soundAlerts
	c.mu.Unlock()
	unreadGauge.Set(float64(unread))

	if desktop {
		c.alerter.Alert(n)
	}
	if sound {
		c.alerter.PlaySound()
	}
}

// onUpdate replaces the matching entry and adjusts the counter from the
// observed read-flag transition. An update for an unknown id is a recoverable
// no-op: push arrival order is not causal order.
func (c *Center) onUpdate(forIdentity string, row json.RawMessage) {
	var n Notification
	if err := json.Unmarshal(row, &n); err != nil || n.ID == "" {
		c.log.Info("notify.push.update.bad_row", "err", err)
		return
	}

	c.mu.Lock()
	if c.identityID != forIdentity {
		c.mu.Unlock()
		return
	}
	for i := range c.list {
		if c.list[i].ID == n.ID {
			wasRead := c.list[i].Read
			c.list[i] = n
			switch {
			case !wasRead && n.Read:
				c.decUnreadLocked()
			case wasRead && !n.Read:
				c.unread++
			}
			break
		}
	}
	unread := c.unread
	c.mu.Unlock()
	unreadGauge.Set(float64(unread))
}

// onDelete removes the matching entry; unknown ids are ignored.
func (c *Center) onDelete(forIdentity string, old json.RawMessage) {
	var n Notification
	if err := json.Unmarshal(old, &n); err != nil || n.ID == "" {
		c.log.Info("notify.push.delete.bad_row", "err", err)
		return
	}

	c.mu.Lock()
	if c.identityID != forIdentity {
		c.mu.Unlock()
		return
	}
	for i := range c.list {
		if c.list[i].ID == n.ID {
			if !c.list[i].Read {
				c.decUnreadLocked()
			}
			c.list = append(c.list[:i], c.list[i+1:]...)
			break
		}
	}
	unread := c.unread
	c.mu.Unlock()
	unreadGauge.Set(float64(unread))
}

// decUnreadLocked decrements with a floor of zero. Heuristic adjustments can
// drift; the next successful Fetch is the authoritative correction.
func (c *Center) decUnreadLocked() {
	if c.unread > 0 {
		c.unread--
	}
}
