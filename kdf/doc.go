// Package kdf adapts memory-hard key-derivation functions to the goHash
// parameter model.
//
// Each [KDF] reads its cost knobs from a [codec.Params] value, so a credential
// can always be re-derived with the exact parameters embedded in it:
//
//	scrypt:   N, r, p, keylen
//	argon2id: m (KiB), t, p, keylen
//
// Missing knobs fall back to the defaults exposed by each implementation.
// Unknown knobs are rejected rather than ignored.
//
// # What this package must NOT do
//
//   - Generate salts. Callers supply them.
//   - Start goroutines. Derive blocks the calling goroutine; goHash
//     runs it on its worker pool.
package kdf
