// Package lifecycle provides the "run before shutdown" registry goHash engines
// use to stop their worker pools.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
)

// Hooks collects shutdown functions and runs them once, newest first.
//
// The zero value is ready to use.
type Hooks struct {
	mu    sync.Mutex
	hooks []func()
	done  bool
}

func New() *Hooks {
	return &Hooks{}
}

// AddShutdownHook registers fn. Hooks added after Shutdown run immediately.
func (h *Hooks) AddShutdownHook(fn func()) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		fn()
		return
	}
	h.hooks = append(h.hooks, fn)
	h.mu.Unlock()
}

// Len reports the number of pending hooks.
func (h *Hooks) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.hooks)
}

// Shutdown runs every registered hook in reverse registration order. Only the
// first call has any effect.
func (h *Hooks) Shutdown() {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		return
	}
	h.done = true
	hooks := h.hooks
	h.hooks = nil
	h.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}

// NotifyOnSignal returns a context cancelled on the first of sig (or on
// parent cancellation); h.Shutdown runs before the context is cancelled.
func NotifyOnSignal(parent context.Context, h *Hooks, sig ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sig...)

	go func() {
		defer signal.Stop(ch)
		select {
		case <-ch:
			h.Shutdown()
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
