package kdf

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goHash/codec"
)

var (
	// ErrCostExceeded is returned when the requested parameters exceed the configured resource limits.
	ErrCostExceeded = errors.New("kdf cost exceeded")
	// ErrInvalidParams is returned when parameters are unknown, missing or out of range.
	ErrInvalidParams = errors.New("invalid kdf parameters")
)

// KDF derives a key from a secret, a salt and cost parameters.
//
// Derive must be deterministic for identical inputs and safe for concurrent use.
type KDF interface {
	// Name identifies the format family; it becomes the credential prefix.
	Name() string
	// Defaults returns the parameter set used when a caller supplies none.
	Defaults() codec.Params
	Derive(secret, salt []byte, params codec.Params) ([]byte, error)
}

// Func adapts a plain function to the KDF interface.
type Func struct {
	FamilyName string
	Params     codec.Params
	Fn         func(secret, salt []byte, params codec.Params) ([]byte, error)
}

func (f Func) Name() string { return f.FamilyName }

func (f Func) Defaults() codec.Params { return f.Params }

func (f Func) Derive(secret, salt []byte, params codec.Params) ([]byte, error) {
	if f.Fn == nil {
		return nil, errors.New("kdf: nil function")
	}
	return f.Fn(secret, salt, params)
}

// New returns the KDF registered under name.
func New(name string, limits Limits) (KDF, error) {
	switch name {
	case ScryptName:
		return NewScrypt(limits), nil
	case Argon2idName:
		return NewArgon2id(limits), nil
	default:
		return nil, fmt.Errorf("kdf: unsupported algorithm %q", name)
	}
}

// Limits bounds the resources a single derivation may request.
type Limits struct {
	// MaxMemoryBytes caps the memory a derivation may allocate. Zero means DefaultMaxMemoryBytes.
	MaxMemoryBytes uint64
}

// DefaultMaxMemoryBytes is the memory cap applied when Limits.MaxMemoryBytes is zero.
const DefaultMaxMemoryBytes uint64 = 1 << 30

func (l Limits) maxMemory() uint64 {
	if l.MaxMemoryBytes == 0 {
		return DefaultMaxMemoryBytes
	}
	return l.MaxMemoryBytes
}

type knob struct {
	name     string
	def      int64
	min, max int64
}

// resolve reads knobs from params, applying defaults and range checks.
func resolve(params codec.Params, knobs []knob) (map[string]int64, error) {
	allowed := make(map[string]struct{}, len(knobs))
	for _, k := range knobs {
		allowed[k.name] = struct{}{}
	}
	for _, name := range params.Keys() {
		if _, ok := allowed[name]; !ok {
			return nil, fmt.Errorf("%w: unsupported parameter %q", ErrInvalidParams, name)
		}
	}

	out := make(map[string]int64, len(knobs))
	for _, k := range knobs {
		v, ok := params.Get(k.name)
		if !ok {
			v = k.def
		}
		if v < k.min || v > k.max {
			return nil, fmt.Errorf("%w: %s=%d out of range [%d, %d]", ErrInvalidParams, k.name, v, k.min, k.max)
		}
		out[k.name] = v
	}
	return out, nil
}
