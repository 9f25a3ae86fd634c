package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/identity"
	"github.com/Wenura17125/Tech-Care-official-sub001/cmd/internal/cache"
)

type fakeProfileAPI struct {
	mu sync.Mutex

	base    identity.Profile
	baseOK  bool
	baseErr error

	ext    identity.ExtendedProfile
	extOK  bool
	extErr error

	// block, when set, stalls GetBaseProfile until released.
	block chan struct{}

	baseCalls int
}

func (f *fakeProfileAPI) GetBaseProfile(ctx context.Context, id string) (identity.Profile, bool, error) {
	f.mu.Lock()
	block := f.block
	f.baseCalls++
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return identity.Profile{}, false, ctx.Err()
		}
	}
	return f.base, f.baseOK, f.baseErr
}

func (f *fakeProfileAPI) GetExtendedProfile(_ context.Context, _ string, _ identity.Role) (identity.ExtendedProfile, bool, error) {
	return f.ext, f.extOK, f.extErr
}

func testIdentity() identity.Identity {
	return identity.Identity{ID: "u1", Claims: identity.Claims{
		identity.ClaimRole:  "technician",
		identity.ClaimName:  "Claims Name",
		identity.ClaimEmail: "claims@example.com",
	}}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func collect(results *[]Result) func(Result) {
	return func(r Result) { *results = append(*results, r) }
}

func TestLoadRemoteSuccess(t *testing.T) {
	t.Parallel()

	api := &fakeProfileAPI{
		base:   identity.Profile{ID: "u1", Role: identity.RoleTechnician, Name: "Remote Name"},
		baseOK: true,
		ext:    identity.ExtendedProfile{Technician: &identity.TechnicianDetail{Specialty: "AC repair"}},
		extOK:  true,
	}
	store := cache.NewMemoryStore()
	l := NewLoader(testLogger(), api, store)

	var results []Result
	if ok := l.Load(context.Background(), testIdentity(), collect(&results)); !ok {
		t.Fatalf("Load reported dropped")
	}

	if len(results) != 1 {
		t.Fatalf("got %d publishes, want 1 (no cache to pre-publish)", len(results))
	}
	res := results[0]
	if res.Source != SourceRemote || !res.Final {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Profile.Name != "Remote Name" {
		t.Fatalf("remote name must win: %+v", res.Profile)
	}
	if res.Profile.Email != "claims@example.com" {
		t.Fatalf("claims must fill missing fields: %+v", res.Profile)
	}
	if res.Extended == nil || res.Extended.Technician == nil || res.Extended.Technician.Specialty != "AC repair" {
		t.Fatalf("extended detail missing: %+v", res.Extended)
	}

	// The successful load must have persisted a snapshot.
	cached, ok := l.Cached(context.Background(), testIdentity())
	if !ok {
		t.Fatalf("expected cached snapshot after successful load")
	}
	if cached.Profile.Name != "Remote Name" || cached.Source != SourceCache {
		t.Fatalf("unexpected cached result: %+v", cached)
	}
}

func TestLoadPublishesCacheBeforeRemote(t *testing.T) {
	t.Parallel()

	api := &fakeProfileAPI{
		base:   identity.Profile{ID: "u1", Name: "Fresh"},
		baseOK: true,
	}
	store := cache.NewMemoryStore()
	l := NewLoader(testLogger(), api, store)

	seed := CachedEntry{Profile: identity.Profile{ID: "u1", Name: "Stale"}, Timestamp: time.Now().UTC()}
	if err := writeEntry(context.Background(), store, seed); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	var results []Result
	if ok := l.Load(context.Background(), testIdentity(), collect(&results)); !ok {
		t.Fatalf("Load reported dropped")
	}

	if len(results) != 2 {
		t.Fatalf("got %d publishes, want 2 (cache-aside then remote)", len(results))
	}
	if results[0].Source != SourceCache || results[0].Final {
		t.Fatalf("first publish must be non-final cache: %+v", results[0])
	}
	if results[0].Profile.Name != "Stale" {
		t.Fatalf("cache-aside publish wrong profile: %+v", results[0].Profile)
	}
	if results[1].Source != SourceRemote || !results[1].Final {
		t.Fatalf("second publish must be final remote: %+v", results[1])
	}
}

func TestLoadFallsBackToCacheOnRemoteError(t *testing.T) {
	t.Parallel()

	api := &fakeProfileAPI{baseErr: errors.New("gateway down")}
	store := cache.NewMemoryStore()
	l := NewLoader(testLogger(), api, store)

	seed := CachedEntry{Profile: identity.Profile{ID: "u1", Name: "Stale"}}
	if err := writeEntry(context.Background(), store, seed); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	var results []Result
	l.Load(context.Background(), testIdentity(), collect(&results))

	last := results[len(results)-1]
	if last.Source != SourceCache || !last.Final {
		t.Fatalf("final publish must be cache tier: %+v", last)
	}
	if last.Profile.Name != "Stale" {
		t.Fatalf("unexpected fallback profile: %+v", last.Profile)
	}
}

func TestLoadFallsBackToClaimsWithoutCache(t *testing.T) {
	t.Parallel()

	api := &fakeProfileAPI{baseErr: errors.New("gateway down")}
	l := NewLoader(testLogger(), api, cache.NewMemoryStore())

	var results []Result
	l.Load(context.Background(), testIdentity(), collect(&results))

	if len(results) != 1 {
		t.Fatalf("got %d publishes, want 1", len(results))
	}
	res := results[0]
	if res.Source != SourceClaims || !res.Final {
		t.Fatalf("final publish must be claims tier: %+v", res)
	}
	if res.Profile.Name != "Claims Name" || res.Profile.Role != identity.RoleTechnician {
		t.Fatalf("claims profile wrong: %+v", res.Profile)
	}
}

func TestLoadDropsConcurrentCall(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	api := &fakeProfileAPI{baseOK: true, base: identity.Profile{ID: "u1"}, block: block}
	l := NewLoader(testLogger(), api, cache.NewMemoryStore())

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		l.Load(context.Background(), testIdentity(), func(Result) {})
	}()

	// Wait for the first load to reach the remote call, then race a second.
	deadline := time.After(2 * time.Second)
	for {
		api.mu.Lock()
		started := api.baseCalls > 0
		api.mu.Unlock()
		if started {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("first load never reached the remote call")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if ok := l.Load(context.Background(), testIdentity(), func(Result) {}); ok {
		t.Fatalf("second concurrent load must be dropped")
	}

	close(block)
	<-firstDone

	// Once settled, a new load is accepted again.
	if ok := l.Load(context.Background(), testIdentity(), func(Result) {}); !ok {
		t.Fatalf("load after settle must be accepted")
	}
}

func TestLoadRejectsZeroIdentity(t *testing.T) {
	t.Parallel()

	l := NewLoader(testLogger(), &fakeProfileAPI{}, cache.NewMemoryStore())
	if ok := l.Load(context.Background(), identity.Identity{}, func(Result) {}); ok {
		t.Fatalf("zero identity must be rejected")
	}
	if ok := l.Load(context.Background(), testIdentity(), nil); ok {
		t.Fatalf("nil publish must be rejected")
	}
}

func TestMergeProfile(t *testing.T) {
	t.Parallel()

	ident := testIdentity()
	base := identity.Profile{
		ID:        "ignored",
		Role:      identity.RoleCustomer,
		Name:      "",
		Phone:     "0771234567",
		CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	got := mergeProfile(ident, base, true)
	if got.ID != "u1" {
		t.Fatalf("principal id must win: %q", got.ID)
	}
	if got.Role != identity.RoleCustomer {
		t.Fatalf("remote role must win: %q", got.Role)
	}
	if got.Name != "Claims Name" {
		t.Fatalf("claims must fill blank remote name: %q", got.Name)
	}
	if got.Phone != "0771234567" {
		t.Fatalf("remote phone missing: %q", got.Phone)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("remote created_at missing")
	}

	// Absent base record reduces to the claims tier.
	got = mergeProfile(ident, identity.Profile{}, false)
	if got.Name != "Claims Name" || got.Role != identity.RoleTechnician {
		t.Fatalf("claims-only merge wrong: %+v", got)
	}
}
