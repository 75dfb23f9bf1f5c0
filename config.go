package goHash

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goHash/codec"
	"github.com/MrEthical07/goHash/kdf"
)

// Config defines the tunables of an Engine.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// Algorithm selects the KDF: "scrypt" (default) or "argon2id". Ignored when Builder.WithKDF is used.
	Algorithm string `yaml:"algorithm" validate:"omitempty,oneof=scrypt argon2id"`
	// Params overrides individual KDF knobs. Omitted knobs use the KDF defaults.
	Params     map[string]int64 `yaml:"params"`
	SaltLength uint32           `yaml:"salt_length" validate:"gte=8,lte=1024"`
	Pool       PoolConfig       `yaml:"pool"`
	Limits     LimitsConfig     `yaml:"limits"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Audit      AuditConfig      `yaml:"audit"`
}

/*
====================================
POOL CONFIG
====================================
*/

// PoolConfig sizes the worker pool that runs key derivations.
//
// Zero values select runtime.GOMAXPROCS(0) workers and a queue of four slots per worker.
type PoolConfig struct {
	Workers   int `yaml:"workers" validate:"gte=0,lte=4096"`
	QueueSize int `yaml:"queue_size" validate:"gte=0"`
}

/*
====================================
LIMITS CONFIG
====================================
*/

// LimitsConfig bounds the resources a single derivation may request. Stored
// credentials whose parameters exceed the limits never verify.
type LimitsConfig struct {
	MaxMemoryBytes uint64 `yaml:"max_memory_bytes"`
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by goHash APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by goHash APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size" validate:"gte=0"`
	DropIfFull bool `yaml:"drop_if_full"`
}

const (
	// DefaultSaltLength is the salt size, in bytes, used by DefaultConfig.
	DefaultSaltLength = 256 / 8

	minSaltLength = 8
	maxSaltLength = 1024
)

// DefaultConfig returns the configuration used by New and by the process-wide default Engine.
func DefaultConfig() Config {
	return Config{
		Algorithm:  kdf.ScryptName,
		SaltLength: DefaultSaltLength,
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Params != nil {
		out.Params = make(map[string]int64, len(cfg.Params))
		for k, v := range cfg.Params {
			out.Params[k] = v
		}
	}
	return out
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Algorithm != "" && c.Algorithm != kdf.ScryptName && c.Algorithm != kdf.Argon2idName {
		return fmt.Errorf("Algorithm %q is not supported", c.Algorithm)
	}
	if c.SaltLength < minSaltLength {
		return fmt.Errorf("SaltLength must be >= %d", minSaltLength)
	}
	if c.SaltLength > maxSaltLength {
		return fmt.Errorf("SaltLength must be <= %d", maxSaltLength)
	}
	for name := range c.Params {
		if name == "" {
			return errors.New("Params must not contain an empty name")
		}
		if err := codec.CheckName(name); err != nil {
			return fmt.Errorf("Params: %w", err)
		}
	}

	// Pool
	if c.Pool.Workers < 0 {
		return errors.New("Pool Workers must be >= 0")
	}
	if c.Pool.QueueSize < 0 {
		return errors.New("Pool QueueSize must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
