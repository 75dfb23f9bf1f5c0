// Package credstore persists encoded credentials keyed by user id.
//
// Stores treat credentials as opaque strings. They never decode, compare or
// log them; all format knowledge stays in goHash and codec.
//
// # What this package must NOT do
//
//   - Import goHash (no import cycles with authn).
//   - Log credential values.
package credstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no credential is stored for the user.
	ErrNotFound = errors.New("credential not found")
	// ErrConflict is returned by Replace when the stored credential no longer matches the expected one.
	ErrConflict = errors.New("credential changed concurrently")
	// ErrInvalidUserID is returned for an empty user id.
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrUnavailable wraps backend failures.
	ErrUnavailable = errors.New("credential store unavailable")
)

// Store is the persistence boundary for credentials.
type Store interface {
	Get(ctx context.Context, userID string) (string, error)
	// Put creates or overwrites the credential for userID.
	Put(ctx context.Context, userID, credential string) error
	// Replace swaps old for updated only if old is still stored.
	Replace(ctx context.Context, userID, old, updated string) error
	// Delete removes the credential. Deleting a missing user is not an error.
	Delete(ctx context.Context, userID string) error
}
