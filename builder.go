package goHash

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goHash/codec"
	"github.com/MrEthical07/goHash/internal"
	"github.com/MrEthical07/goHash/internal/pool"
	"github.com/MrEthical07/goHash/kdf"
	"github.com/MrEthical07/goHash/lifecycle"
	"github.com/rs/zerolog"
)

// Builder assembles an Engine. A Builder can be used for exactly one Build.
type Builder struct {
	config Config

	kdf       kdf.KDF
	random    RandomSource
	runner    Runner
	host      Host
	logger    *zerolog.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithKDF replaces the KDF selected by Config.Algorithm.
func (b *Builder) WithKDF(k kdf.KDF) *Builder {
	b.kdf = k
	return b
}

// WithRandomSource replaces crypto/rand as the salt source. Intended for tests.
func (b *Builder) WithRandomSource(r RandomSource) *Builder {
	b.random = r
	return b
}

// WithRunner supplies the worker pool. By default each Engine owns a new pool
// sized by Config.Pool, shared with nothing else.
//
// If r is not running when the Engine first needs it, the Engine starts it,
// registers its Stop with the Host and stops it on Close. A runner that is
// already running stays under the caller's control: start it before sharing
// it between Engines.
func (b *Builder) WithRunner(r Runner) *Builder {
	b.runner = r
	return b
}

// WithHost supplies the shutdown-hook registry the pool's Stop is attached to
// on first use. By default the Engine keeps a private registry and only Close
// stops the pool.
func (b *Builder) WithHost(h Host) *Builder {
	b.host = h
	return b
}

func (b *Builder) WithLogger(l zerolog.Logger) *Builder {
	b.logger = &l
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and returns a ready Engine. No goroutines
// are started except the audit dispatcher (when enabled); the worker pool
// starts on first use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if b.logger != nil {
		logger = *b.logger
	}
	logger = logger.With().Str("component", "gohash").Logger()

	// -------- KDF --------
	k := b.kdf
	if k == nil {
		algorithm := cfg.Algorithm
		if algorithm == "" {
			algorithm = kdf.ScryptName
		}
		var err error
		k, err = kdf.New(algorithm, kdf.Limits{MaxMemoryBytes: cfg.Limits.MaxMemoryBytes})
		if err != nil {
			return nil, err
		}
	}

	credCodec, err := codec.New(k.Name())
	if err != nil {
		return nil, fmt.Errorf("kdf name: %w", err)
	}

	params, err := mergeParams(k.Defaults(), cfg.Params)
	if err != nil {
		return nil, err
	}

	// -------- WORKER POOL --------
	runner := b.runner
	if runner == nil {
		runner = pool.New(pool.Config{
			Workers:   cfg.Pool.Workers,
			QueueSize: cfg.Pool.QueueSize,
		}, logger)
	}
	host := b.host
	if host == nil {
		host = lifecycle.New()
	}

	random := b.random
	if random == nil {
		random = internal.RandomBytes
	}

	metrics := NewMetrics(cfg.Metrics)

	offloader := pool.NewOffloader(runner, host, logger)
	offloader.OnStart = func() { metrics.Inc(MetricPoolStart) }

	e := &Engine{
		cfg:       cfg,
		kdf:       k,
		params:    params,
		codec:     credCodec,
		random:    random,
		offloader: offloader,
		metrics:   metrics,
		audit:     newAuditDispatcher(cfg.Audit, b.auditSink, logger),
		logger:    logger,
	}

	b.built = true
	logger.Debug().
		Str("algorithm", k.Name()).
		Str("params", params.String()).
		Uint32("salt_length", cfg.SaltLength).
		Msg("engine built")

	return e, nil
}

// mergeParams overlays the configured knobs on the KDF defaults so that every
// credential embeds the complete parameter set.
func mergeParams(defaults codec.Params, overrides map[string]int64) (codec.Params, error) {
	merged := defaults.Map()
	for name, v := range overrides {
		if defaults.Len() > 0 {
			if _, ok := defaults.Get(name); !ok {
				return codec.Params{}, fmt.Errorf("Params: unsupported parameter %q", name)
			}
		}
		merged[name] = v
	}

	params := codec.NewParams(merged)
	if err := params.Validate(); err != nil {
		return codec.Params{}, fmt.Errorf("Params: %w", err)
	}
	return params, nil
}
