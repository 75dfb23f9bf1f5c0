package goHash

import (
	"context"
	"sync"

	"github.com/MrEthical07/goHash/lifecycle"
	"github.com/rs/zerolog"
)

var (
	defaultMu     sync.Mutex
	defaultEngine *Engine
	defaultErr    error

	processHooks = lifecycle.New()
)

// ProcessHooks returns the shutdown registry used by the default Engine.
// Applications that own their own shutdown sequence should call Shutdown (or
// ProcessHooks().Shutdown) from it.
func ProcessHooks() *lifecycle.Hooks { return processHooks }

// Default returns the process-wide Engine, building it from DefaultConfig on
// first use. Its worker pool stops when ProcessHooks runs.
func Default() (*Engine, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultEngine == nil && defaultErr == nil {
		defaultEngine, defaultErr = New().
			WithHost(processHooks).
			WithLogger(zerolog.Nop()).
			Build()
	}
	return defaultEngine, defaultErr
}

// SetDefault replaces the process-wide Engine and returns a function that
// restores the previous one. Intended for tests.
func SetDefault(e *Engine) (restore func()) {
	defaultMu.Lock()
	prevEngine, prevErr := defaultEngine, defaultErr
	defaultEngine, defaultErr = e, nil
	defaultMu.Unlock()

	return func() {
		defaultMu.Lock()
		defaultEngine, defaultErr = prevEngine, prevErr
		defaultMu.Unlock()
	}
}

// Compute derives a credential for password with the default Engine and
// waits for the result.
func Compute(ctx context.Context, password string) (string, error) {
	e, err := Default()
	if err != nil {
		return "", err
	}
	return e.ComputeSync(ctx, password)
}

// Verify checks password against stored with the default Engine and waits for
// the result.
func Verify(ctx context.Context, stored, password string) (bool, error) {
	e, err := Default()
	if err != nil {
		return false, err
	}
	return e.VerifySync(ctx, stored, password)
}

// Shutdown runs the process shutdown hooks, stopping the default Engine's pool
// after queued derivations drain.
func Shutdown() {
	processHooks.Shutdown()
}
