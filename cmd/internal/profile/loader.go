package profile

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/identity"
	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/internal/cache"
)

// Source identifies which tier produced a published Result.
type Source string

const (
	// SourceCache is the opportunistic cache-aside read published before the
	// remote fetch completes, and the first fallback tier when it fails.
	SourceCache Source = "cache"
	// SourceRemote is ground truth from the profile API.
	SourceRemote Source = "remote"
	// SourceClaims is the minimal claims-derived record, the last tier.
	SourceClaims Source = "claims"
)

// Result is one published profile resolution.
//
// Final is false only for the opportunistic cache-aside publish made while
// the remote fetch is still running; every terminal publish sets it.
type Result struct {
	Profile  identity.Profile
	Extended *identity.ExtendedProfile
	Source   Source
	Final    bool
}

// Loader resolves profiles with a cache-aside read, a joined remote fetch,
// and a three-tier fallback. It never reports an error to its caller.
type Loader struct {
	log   *slog.Logger
	api   identity.ProfileAPI
	cache cache.Store

	// Guard: at most one remote load in flight per loader.
	mu       sync.Mutex
	inFlight bool
}

// NewLoader constructs a Loader.
func NewLoader(log *slog.Logger, api identity.ProfileAPI, store cache.Store) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{log: log, api: api, cache: store}
}

// Load resolves the profile for ident and pushes results through publish.
//
// publish is called up to twice: once synchronously with a cached snapshot
// when one exists, then once with the final result (remote on success, cache
// or claims on failure). A call arriving while a load is already in flight is
// dropped and reports false; callers wanting a fresh load must call again
// after the current one settles.
func (l *Loader) Load(ctx context.Context, ident identity.Identity, publish func(Result)) bool {
	if ident.IsZero() || publish == nil {
		return false
	}

	l.mu.Lock()
	if l.inFlight {
		l.mu.Unlock()
		loadsDropped.Inc()
		l.log.Debug("profile.load.dropped", "identity_id", ident.ID)
		return false
	}
	l.inFlight = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.inFlight = false
		l.mu.Unlock()
	}()

	cached, haveCache := readEntry(ctx, l.cache, ident.ID)
	if haveCache {
		publish(Result{Profile: cached.Profile, Extended: cached.Extended, Source: SourceCache})
	}

	merged, extended, err := l.fetchRemote(ctx, ident)
	if err != nil {
		l.log.Info("profile.load.fallback", "identity_id", ident.ID, "err", err)
		if haveCache {
			loadsTotal.WithLabelValues(string(SourceCache)).Inc()
			publish(Result{Profile: cached.Profile, Extended: cached.Extended, Source: SourceCache, Final: true})
			return true
		}
		loadsTotal.WithLabelValues(string(SourceClaims)).Inc()
		publish(Result{Profile: identity.MinimalProfile(ident), Source: SourceClaims, Final: true})
		return true
	}

	loadsTotal.WithLabelValues(string(SourceRemote)).Inc()
	publish(Result{Profile: merged, Extended: extended, Source: SourceRemote, Final: true})

	entry := CachedEntry{Profile: merged, Extended: extended, Timestamp: time.Now().UTC()}
	if err := writeEntry(ctx, l.cache, entry); err != nil {
		// Cache write failures never affect the published result.
		l.log.Info("profile.cache.write.fail", "identity_id", ident.ID, "err", err)
	}
	return true
}

// Cached returns the persisted snapshot for ident without touching the
// remote API. It backs the instant render at session start.
func (l *Loader) Cached(ctx context.Context, ident identity.Identity) (Result, bool) {
	e, ok := readEntry(ctx, l.cache, ident.ID)
	if !ok {
		return Result{}, false
	}
	return Result{Profile: e.Profile, Extended: e.Extended, Source: SourceCache}, true
}

// fetchRemote issues the base and role-specific fetches concurrently and
// joins both before returning. Either failing fails the whole load.
func (l *Loader) fetchRemote(ctx context.Context, ident identity.Identity) (identity.Profile, *identity.ExtendedProfile, error) {
	var (
		base   identity.Profile
		baseOK bool

		ext   identity.ExtendedProfile
		extOK bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		base, baseOK, err = l.api.GetBaseProfile(gctx, ident.ID)
		return err
	})
	g.Go(func() error {
		var err error
		ext, extOK, err = l.api.GetExtendedProfile(gctx, ident.ID, ident.Role())
		return err
	})
	if err := g.Wait(); err != nil {
		return identity.Profile{}, nil, err
	}

	merged := mergeProfile(ident, base, baseOK)

	var extended *identity.ExtendedProfile
	if extOK {
		e := ext
		extended = &e
	}
	return merged, extended, nil
}

// mergeProfile layers the remote base record over identity claims.
// Remote fields win; claims fill the gaps; the principal id always wins.
func mergeProfile(ident identity.Identity, base identity.Profile, baseOK bool) identity.Profile {
	out := identity.MinimalProfile(ident)
	if !baseOK {
		return out
	}

	out.CreatedAt = base.CreatedAt
	if base.Role != "" {
		out.Role = base.Role
	}
	if strings.TrimSpace(base.Name) != "" {
		out.Name = base.Name
	}
	if strings.TrimSpace(base.Email) != "" {
		out.Email = base.Email
	}
	if strings.TrimSpace(base.Phone) != "" {
		out.Phone = base.Phone
	}
	if strings.TrimSpace(base.AvatarURL) != "" {
		out.AvatarURL = base.AvatarURL
	}
	out.ID = ident.ID
	return out
}
