// Package pool runs blocking key derivations on a bounded set of goroutines.
//
// # Components
//
//   - [Runner]: capability interface for a startable, stoppable worker pool.
//   - [Pool]: the production Runner: fixed workers draining a buffered queue.
//   - [Host]: "run once before shutdown" registration.
//   - [Offloader]: lazily starts a Runner on first use, registers its stop
//     with the Host exactly once, and returns outcomes on channels.
//
// # Architecture boundaries
//
// This package owns goroutine lifecycle only. It does not know what the work
// computes; encoding and comparison happen in the goroutine that receives the
// [Outcome].
//
// # What this package must NOT do
//
//   - Let a panicking task take down a worker.
//   - Register more than one shutdown hook per Offloader.
//   - Import goHash or any sibling package.
package pool
