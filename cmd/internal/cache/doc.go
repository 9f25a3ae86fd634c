// Package cache provides the client's persisted key/value store.
//
// It survives process restarts and holds the last known good snapshot of a
// profile. Readers must treat every failure mode (missing file, corrupt
// entry, unreachable backend) identically to a cache miss.
package cache
