// Package internal contains helper utilities that are intentionally private to goHash,
// including secure random generation and operation identifiers.
//
// # Sub-packages
//
//   - pool: lazily started worker pool that runs blocking key derivations
//
// # What this package must NOT do
//
//   - Export types that appear in the public goHash API.
//   - Be imported by any package outside the goHash module.
package internal
