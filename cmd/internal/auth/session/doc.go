// Package session owns the client-side identity/authentication state machine.
//
// The Manager reacts to identity-provider events, drives profile loading on
// the transitions that need it, and exposes login/logout/refresh actions plus
// a read snapshot to the surrounding UI collaborators. All remote failures
// except invalid credentials are absorbed; the snapshot degrades instead of
// erroring.
package session
