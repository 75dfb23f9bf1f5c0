// Package goHash computes and verifies salted password credentials without
// blocking the caller on the key derivation function.
//
// Key derivation (scrypt or argon2id) runs on a bounded worker pool that starts
// on first use and stops through a shutdown hook. Compute and Verify return a
// [Future]; encoding and comparison run in the goroutine that awaits it.
//
// Credentials are self-describing strings:
//
//	<algorithm>$<params>$<base64(key)>$<base64(salt)>
//
// where params is a canonical JSON object of integer cost knobs, so a stored
// credential keeps verifying after the Engine's defaults change.
//
// # Architecture boundaries
//
// goHash is the public surface. It exposes [Engine], [Builder], [Config] and
// [Future]. The credential format lives in codec, derivation functions in kdf,
// the worker pool under internal/pool and the shutdown registry in lifecycle.
//
// # What this package must NOT do
//
//   - Report a malformed stored credential as a failed match.
//   - Run encoding or comparison on a pool worker.
//   - Log passwords, salts or derived keys.
//   - Import any sub-package that re-imports goHash (no import cycles).
package goHash
