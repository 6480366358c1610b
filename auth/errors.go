package auth

import "errors"

// Sentinel errors for the authentication core. Match with errors.Is.
var (
	// ErrInvalidCredential marks a malformed, expired, or forged token.
	// Decided before any database access.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrSessionNotFound marks a credential whose session row no longer
	// exists (revoked or forged id). Callers must treat it exactly like
	// ErrInvalidCredential so responses never leak session existence.
	ErrSessionNotFound = errors.New("session not found")

	// ErrIntegrity marks a live session referencing a missing user. Sessions
	// cascade-delete with users, so this indicates a missed cascade and is a
	// server fault, never surfaced to the client in detail.
	ErrIntegrity = errors.New("session references missing user")
)
