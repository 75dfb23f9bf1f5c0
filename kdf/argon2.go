package kdf

import (
	"fmt"

	"github.com/MrEthical07/goHash/codec"
	"golang.org/x/crypto/argon2"
)

// Argon2idName is the format family name of the Argon2id KDF.
const Argon2idName = "argon2id"

const (
	DefaultArgon2Memory      = 64 * 1024
	DefaultArgon2Time        = 3
	DefaultArgon2Parallelism = 2
	DefaultArgon2KeyLen      = 32

	minArgon2MemoryKB = 8 * 1024
)

var argon2Knobs = []knob{
	{name: "m", def: DefaultArgon2Memory, min: minArgon2MemoryKB, max: 1<<32 - 1},
	{name: "t", def: DefaultArgon2Time, min: 1, max: 1<<32 - 1},
	{name: "p", def: DefaultArgon2Parallelism, min: 1, max: 255},
	{name: "keylen", def: DefaultArgon2KeyLen, min: 16, max: 1024},
}

// Argon2id derives keys with Argon2id (RFC 9106).
type Argon2id struct {
	limits Limits
}

func NewArgon2id(limits Limits) *Argon2id {
	return &Argon2id{limits: limits}
}

func (a *Argon2id) Name() string { return Argon2idName }

func (a *Argon2id) Defaults() codec.Params {
	return codec.NewParams(map[string]int64{
		"m":      DefaultArgon2Memory,
		"t":      DefaultArgon2Time,
		"p":      DefaultArgon2Parallelism,
		"keylen": DefaultArgon2KeyLen,
	})
}

// Derive runs Argon2id with the m, t, p and keylen knobs from params.
func (a *Argon2id) Derive(secret, salt []byte, params codec.Params) ([]byte, error) {
	v, err := resolve(params, argon2Knobs)
	if err != nil {
		return nil, err
	}

	need := uint64(v["m"]) * 1024
	if limit := a.limits.maxMemory(); need > limit {
		return nil, fmt.Errorf("%w: argon2id needs %d bytes, limit %d", ErrCostExceeded, need, limit)
	}

	return argon2.IDKey(
		secret,
		salt,
		uint32(v["t"]),
		uint32(v["m"]),
		uint8(v["p"]),
		uint32(v["keylen"]),
	), nil
}
