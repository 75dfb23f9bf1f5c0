package goHash

import (
	"errors"

	"github.com/MrEthical07/goHash/codec"
	"github.com/MrEthical07/goHash/internal/pool"
	"github.com/MrEthical07/goHash/kdf"
)

var (
	// ErrMalformedFieldCount is returned by Verify when the stored credential does not have exactly four fields.
	ErrMalformedFieldCount = codec.ErrMalformedFieldCount
	// ErrUnrecognizedPrefix is returned by Verify when the stored credential belongs to another format family.
	ErrUnrecognizedPrefix = codec.ErrUnrecognizedPrefix
	// ErrCorruptCredential is returned by Verify when a stored credential field cannot be decoded.
	ErrCorruptCredential = codec.ErrCorruptCredential
	// ErrDerivationFailed is returned by Compute when the key derivation function fails.
	ErrDerivationFailed = errors.New("key derivation failed")
	// ErrRandomSource is returned by Compute when salt generation fails.
	ErrRandomSource = errors.New("random source failure")
	// ErrPoolStopped is returned when work is submitted after the worker pool was stopped.
	ErrPoolStopped = pool.ErrNotRunning
	// ErrEngineClosed is returned by operations on a closed Engine.
	ErrEngineClosed = errors.New("engine closed")

	// ErrCostExceeded is wrapped by ErrDerivationFailed when parameters exceed the configured limits.
	ErrCostExceeded = kdf.ErrCostExceeded
	// ErrInvalidParams is wrapped by ErrDerivationFailed when the KDF rejects the parameters.
	ErrInvalidParams = kdf.ErrInvalidParams
)

// IsMalformed reports whether err is one of the decode-time credential errors.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedFieldCount) ||
		errors.Is(err, ErrUnrecognizedPrefix) ||
		errors.Is(err, ErrCorruptCredential)
}
