// Package profile resolves the full role-aware profile for an identity.
//
// It layers three sources: the persisted cache for instant display, the
// remote profile API for ground truth, and identity claims as the last
// resort. A per-loader guard bounds remote fetches to at most one in flight.
package profile
