package kdf

import (
	"fmt"

	"github.com/MrEthical07/goHash/codec"
	"golang.org/x/crypto/scrypt"
)

// ScryptName is the format family name of the scrypt KDF.
const ScryptName = "scrypt"

const (
	DefaultScryptN      = 1 << 15
	DefaultScryptR      = 8
	DefaultScryptP      = 1
	DefaultScryptKeyLen = 64
)

var scryptKnobs = []knob{
	{name: "N", def: DefaultScryptN, min: 2, max: 1 << 32},
	{name: "r", def: DefaultScryptR, min: 1, max: 1 << 20},
	{name: "p", def: DefaultScryptP, min: 1, max: 1 << 20},
	{name: "keylen", def: DefaultScryptKeyLen, min: 16, max: 1024},
}

// Scrypt derives keys with scrypt.
type Scrypt struct {
	limits Limits
}

func NewScrypt(limits Limits) *Scrypt {
	return &Scrypt{limits: limits}
}

func (s *Scrypt) Name() string { return ScryptName }

func (s *Scrypt) Defaults() codec.Params {
	return codec.NewParams(map[string]int64{
		"N":      DefaultScryptN,
		"r":      DefaultScryptR,
		"p":      DefaultScryptP,
		"keylen": DefaultScryptKeyLen,
	})
}

// Derive runs scrypt with the N, r, p and keylen knobs from params.
func (s *Scrypt) Derive(secret, salt []byte, params codec.Params) ([]byte, error) {
	v, err := resolve(params, scryptKnobs)
	if err != nil {
		return nil, err
	}

	n, r, p := v["N"], v["r"], v["p"]
	if n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: N=%d must be a power of two", ErrInvalidParams, n)
	}
	if r*p >= 1<<30 {
		return nil, fmt.Errorf("%w: r*p=%d too large", ErrInvalidParams, r*p)
	}

	// scrypt allocates 128*N*r bytes for V plus 128*r*p for B.
	need := uint64(128) * uint64(r) * (uint64(n) + uint64(p))
	if limit := s.limits.maxMemory(); need > limit {
		return nil, fmt.Errorf("%w: scrypt needs %d bytes, limit %d", ErrCostExceeded, need, limit)
	}

	key, err := scrypt.Key(secret, salt, int(n), int(r), int(p), int(v["keylen"]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return key, nil
}
