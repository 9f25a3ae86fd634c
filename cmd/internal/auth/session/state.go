package session

import "github.com/Wenura17125/Tech-Care-official-sub001/cmd/identity"

// State is the lifecycle position of the session manager.
type State string

const (
	// StateInit is the pre-Initialize state.
	StateInit State = "init"
	// StateUnauthenticated means no principal is signed in.
	StateUnauthenticated State = "unauthenticated"
	// StateAuthenticated means a principal is signed in.
	StateAuthenticated State = "authenticated"
	// StateRefreshing means a token refresh is in progress for an
	// authenticated principal.
	StateRefreshing State = "refreshing"
)

// Snapshot is the read state exposed to UI collaborators.
// It is a value copy; readers never observe partial mutations.
type Snapshot struct {
	State    State
	Identity identity.Identity
	Profile  identity.Profile
	Extended *identity.ExtendedProfile

	// Loading reports whether ground truth is still being resolved. The UI
	// may always render Profile; it is at worst stale, never absent once a
	// principal is known.
	Loading bool
}

// Listener observes snapshot changes. Listeners run synchronously after each
// transition and must not block.
type Listener func(Snapshot)
