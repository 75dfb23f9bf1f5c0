package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// State is the lifecycle state of an Offloader.
type State int32

const (
	StateNotStarted State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Outcome carries either the result of a task or the error it produced.
type Outcome struct {
	Value []byte
	Err   error
}

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Offloader lazily starts a Runner and wires its Stop to a Host shutdown hook.
type Offloader struct {
	runner Runner
	host   Host
	logger zerolog.Logger

	startOnce sync.Once
	state     atomic.Int32
	owned     atomic.Bool

	// OnStart is called once, after the runner has been started by the Offloader.
	OnStart func()
}

func NewOffloader(runner Runner, host Host, logger zerolog.Logger) *Offloader {
	return &Offloader{
		runner: runner,
		host:   host,
		logger: logger.With().Str("component", "offloader").Logger(),
	}
}

// State reports whether the Offloader has started its runner.
func (o *Offloader) State() State {
	return State(o.state.Load())
}

func (o *Offloader) Runner() Runner { return o.runner }

func (o *Offloader) ensureStarted() {
	o.startOnce.Do(func() {
		defer o.state.Store(int32(StateRunning))
		if o.runner.Started() {
			return
		}
		o.runner.Start()
		o.owned.Store(true)
		if o.host != nil {
			o.host.AddShutdownHook(o.runner.Stop)
		}
		o.logger.Debug().Msg("worker pool started on first submission")
		if o.OnStart != nil {
			o.OnStart()
		}
	})
}

// Stop stops the runner if this Offloader started it and prevents any later
// lazy start. A runner that was already running on first use is left alone.
func (o *Offloader) Stop() {
	o.startOnce.Do(func() {})
	if o.owned.Load() {
		o.runner.Stop()
	}
}

// Go runs work on the pool. The returned channel receives exactly one Outcome.
func (o *Offloader) Go(ctx context.Context, work func() ([]byte, error)) (<-chan Outcome, error) {
	o.ensureStarted()

	out := make(chan Outcome, 1)
	task := func() {
		var res Outcome
		defer func() {
			if r := recover(); r != nil {
				res = Outcome{Err: &PanicError{Value: r}}
			}
			out <- res
		}()
		v, err := work()
		res = Outcome{Value: v, Err: err}
	}

	if err := o.runner.Submit(ctx, task); err != nil {
		return nil, err
	}
	return out, nil
}
