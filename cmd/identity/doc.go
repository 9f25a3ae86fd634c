// Package identity implements the Tech-Care client's identity foundation.
//
// It contains the principal/claims model, the role-aware profile model, and
// the client boundaries to the remote identity provider and profile API.
//
// This package is intentionally dependency-light.
package identity
