// Package notify maintains the live notification feed for the signed-in
// identity.
//
// It merges a rate-limited authoritative fetch with push events folded in as
// they arrive. The unread counter is exact after every successful fetch and
// heuristically maintained between fetches; it never goes negative.
package notify
