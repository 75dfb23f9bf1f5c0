package goHash

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goHash/codec"
	"github.com/MrEthical07/goHash/internal"
	"github.com/MrEthical07/goHash/internal/pool"
	"github.com/MrEthical07/goHash/kdf"
	"github.com/rs/zerolog"
)

// RandomSource returns n cryptographically secure random bytes.
type RandomSource func(n int) ([]byte, error)

// Runner is the worker pool capability an Engine offloads derivations to.
type Runner = pool.Runner

// Host registers a function to run once before process shutdown.
type Host = pool.Host

// PoolState is the lifecycle state of an Engine's worker pool.
type PoolState = pool.State

const (
	PoolNotStarted = pool.StateNotStarted
	PoolRunning    = pool.StateRunning
)

// Engine computes and verifies password credentials on a worker pool.
//
// Engine methods are safe for concurrent use. The pool starts on the first
// Compute or Verify and is stopped by the Host shutdown hook or by Close.
type Engine struct {
	cfg    Config
	kdf    kdf.KDF
	params codec.Params
	codec  codec.Codec
	random RandomSource

	offloader *pool.Offloader

	metrics *Metrics
	audit   *auditDispatcher
	logger  zerolog.Logger

	closed atomic.Bool
}

// Compute derives a credential for password with a fresh salt and the
// Engine's configured parameters.
//
// Failures to draw a salt resolve with ErrRandomSource, KDF failures with
// ErrDerivationFailed. The future never resolves with a partial credential.
func (e *Engine) Compute(ctx context.Context, password string) *Future[string] {
	if ctx == nil {
		ctx = context.Background()
	}
	opID := internal.NewOperationID()

	fail := func(err error) *Future[string] {
		e.metrics.Inc(MetricComputeFailure)
		e.emitAudit(ctx, auditEventCompute, opID, false, auditErrorCode(err), nil)
		return resolvedFuture("", err)
	}

	if e.closed.Load() {
		return fail(ErrEngineClosed)
	}

	salt, err := e.random(int(e.cfg.SaltLength))
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrRandomSource, err))
	}
	if len(salt) != int(e.cfg.SaltLength) {
		return fail(fmt.Errorf("%w: got %d bytes, want %d", ErrRandomSource, len(salt), e.cfg.SaltLength))
	}

	params := e.params
	ch, err := e.offload(ctx, []byte(password), salt, params)
	if err != nil {
		return fail(err)
	}

	auditCtx := context.WithoutCancel(ctx)
	meta := paramsMetadata(params, false)
	return newFuture(ch, func(out pool.Outcome) (string, error) {
		if out.Err != nil {
			e.logger.Warn().Err(out.Err).Str("operation_id", opID).Msg("compute: key derivation failed")
			err := fmt.Errorf("%w: %w", ErrDerivationFailed, out.Err)
			e.metrics.Inc(MetricComputeFailure)
			e.emitAudit(auditCtx, auditEventCompute, opID, false, auditErrorCode(err), meta)
			return "", err
		}

		credential, err := e.codec.Encode(params, out.Value, salt)
		if err != nil {
			e.logger.Error().Err(err).Str("operation_id", opID).Msg("compute: encode credential")
			e.metrics.Inc(MetricComputeFailure)
			e.emitAudit(auditCtx, auditEventCompute, opID, false, auditErrorCode(err), meta)
			return "", err
		}
		e.metrics.Inc(MetricComputeSuccess)
		e.emitAudit(auditCtx, auditEventCompute, opID, true, "", meta)
		return credential, nil
	})
}

// Verify checks password against a stored credential.
//
// The stored credential is decoded before anything is submitted to the pool;
// decode failures are returned directly (ErrMalformedFieldCount,
// ErrUnrecognizedPrefix, ErrCorruptCredential) and are never reported as a
// false result. The key is re-derived with the salt and parameters stored in
// the credential, not the Engine's configuration. A KDF failure resolves false.
func (e *Engine) Verify(ctx context.Context, stored, password string) (*Future[bool], error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opID := internal.NewOperationID()

	if e.closed.Load() {
		e.emitAudit(ctx, auditEventVerify, opID, false, auditErrEngineClosed, nil)
		return nil, ErrEngineClosed
	}

	cred, err := e.codec.Decode(stored)
	if err != nil {
		e.metrics.Inc(MetricVerifyMalformed)
		e.emitAudit(ctx, auditEventVerify, opID, false, auditErrorCode(err), nil)
		return nil, err
	}

	meta := paramsMetadata(cred.Params, !cred.Params.Equal(e.params))
	ch, err := e.offload(ctx, []byte(password), cred.Salt, cred.Params)
	if err != nil {
		e.emitAudit(ctx, auditEventVerify, opID, false, auditErrorCode(err), meta)
		return nil, err
	}

	auditCtx := context.WithoutCancel(ctx)
	return newFuture(ch, func(out pool.Outcome) (bool, error) {
		if out.Err != nil {
			e.logger.Debug().Err(out.Err).Str("operation_id", opID).Msg("verify: key derivation failed")
			e.metrics.Inc(MetricVerifyDerivationFailure)
			e.emitAudit(auditCtx, auditEventVerify, opID, false, auditErrDerivationFailed, meta)
			return false, nil
		}

		if subtle.ConstantTimeCompare(out.Value, cred.Key) != 1 {
			e.metrics.Inc(MetricVerifyMismatch)
			e.emitAudit(auditCtx, auditEventVerify, opID, false, auditErrMismatch, meta)
			return false, nil
		}

		e.metrics.Inc(MetricVerifyMatch)
		e.emitAudit(auditCtx, auditEventVerify, opID, true, "", meta)
		return true, nil
	}), nil
}

// ComputeSync is Compute followed by Await on the calling goroutine.
func (e *Engine) ComputeSync(ctx context.Context, password string) (string, error) {
	return e.Compute(ctx, password).Await(ctx)
}

// VerifySync is Verify followed by Await on the calling goroutine.
func (e *Engine) VerifySync(ctx context.Context, stored, password string) (bool, error) {
	f, err := e.Verify(ctx, stored, password)
	if err != nil {
		return false, err
	}
	return f.Await(ctx)
}

// NeedsUpgrade reports whether stored was produced with parameters other than
// the Engine's current ones, so the caller can recompute it after the next
// successful Verify.
func (e *Engine) NeedsUpgrade(stored string) (bool, error) {
	cred, err := e.codec.Decode(stored)
	if err != nil {
		return false, err
	}
	return !cred.Params.Equal(e.params), nil
}

// Params returns the cost parameters embedded in every credential this Engine computes.
func (e *Engine) Params() codec.Params { return e.params }

// Algorithm returns the KDF family name, which is also the credential prefix.
func (e *Engine) Algorithm() string { return e.kdf.Name() }

// PoolState reports whether the worker pool has been started.
func (e *Engine) PoolState() PoolState { return e.offloader.State() }

// MetricsSnapshot returns a copy of the Engine's metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot { return e.metrics.Snapshot() }

// Close stops the worker pool after queued derivations finish and flushes the
// audit dispatcher. A runner supplied through Builder.WithRunner is only
// stopped if this Engine started it. Futures already returned still resolve. Close is idempotent.
func (e *Engine) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.offloader.Stop()
	e.audit.Close()
	e.logger.Debug().Msg("engine closed")
}

func (e *Engine) offload(ctx context.Context, secret, salt []byte, params codec.Params) (<-chan pool.Outcome, error) {
	ch, err := e.offloader.Go(ctx, func() ([]byte, error) {
		start := time.Now()
		key, err := e.kdf.Derive(secret, salt, params)
		e.metrics.Observe(MetricDeriveLatency, time.Since(start))
		return key, err
	})
	if err != nil {
		e.metrics.Inc(MetricSubmitRejected)
		return nil, err
	}
	return ch, nil
}
