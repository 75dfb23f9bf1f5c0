package pool

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// ErrNotRunning is returned by Submit when the pool is not started.
var ErrNotRunning = errors.New("worker pool not running")

// Runner is the capability set the Offloader needs from a worker pool.
type Runner interface {
	Start()
	Stop()
	Started() bool
	Submit(ctx context.Context, task func()) error
}

// Host registers functions to run once before process shutdown.
type Host interface {
	AddShutdownHook(fn func())
}

// Config controls pool sizing.
type Config struct {
	Workers   int
	QueueSize int
}

// Stats is a point-in-time view of a pool.
type Stats struct {
	Workers int
	Queued  int
	Started bool
}

// Pool is a fixed-size goroutine pool. Stop drains queued tasks before
// returning; a stopped pool may be started again.
type Pool struct {
	cfg    Config
	logger zerolog.Logger

	mu   sync.RWMutex
	jobs chan func()
	wg   *sync.WaitGroup
}

func New(cfg Config, logger zerolog.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 4 * cfg.Workers
	}
	return &Pool{
		cfg:    cfg,
		logger: logger.With().Str("component", "pool").Logger(),
	}
}

// Start launches the workers. It is a no-op on a running pool.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.jobs != nil {
		return
	}

	jobs := make(chan func(), p.cfg.QueueSize)
	wg := &sync.WaitGroup{}
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go p.run(jobs, wg)
	}
	p.jobs = jobs
	p.wg = wg

	p.logger.Debug().Int("workers", p.cfg.Workers).Int("queue", p.cfg.QueueSize).Msg("worker pool started")
}

// Stop closes the queue and waits for in-flight and queued tasks. It is idempotent.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.jobs == nil {
		p.mu.Unlock()
		return
	}
	close(p.jobs)
	wg := p.wg
	p.jobs = nil
	p.wg = nil
	p.mu.Unlock()

	wg.Wait()
	p.logger.Debug().Msg("worker pool stopped")
}

func (p *Pool) Started() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.jobs != nil
}

// Submit enqueues task, blocking while the queue is full.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.jobs == nil {
		return ErrNotRunning
	}

	select {
	case p.jobs <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Stats{
		Workers: p.cfg.Workers,
		Queued:  len(p.jobs),
		Started: p.jobs != nil,
	}
}

func (p *Pool) run(jobs <-chan func(), wg *sync.WaitGroup) {
	defer wg.Done()
	for task := range jobs {
		p.exec(task)
	}
}

func (p *Pool) exec(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Interface("panic", r).Msg("worker task panicked")
		}
	}()
	task()
}
