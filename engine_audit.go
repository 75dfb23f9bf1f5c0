package goHash

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/goHash/codec"
)

const (
	auditEventCompute = "credential_compute"
	auditEventVerify  = "credential_verify"
)

const (
	auditMetaParams       = "params"
	auditMetaNeedsUpgrade = "needs_upgrade"
)

// paramsMetadata records the cost parameters an operation ran with. Verify
// events also report whether the stored credential is due for an upgrade.
func paramsMetadata(params codec.Params, needsUpgrade bool) func() map[string]string {
	return func() map[string]string {
		return map[string]string{
			auditMetaParams:       params.String(),
			auditMetaNeedsUpgrade: strconv.FormatBool(needsUpgrade),
		}
	}
}

// AuditErrorCode is the stable, non-sensitive error classification attached to audit events.
type AuditErrorCode string

const (
	auditErrMalformedFieldCount AuditErrorCode = "malformed_field_count"
	auditErrUnrecognizedPrefix  AuditErrorCode = "unrecognized_prefix"
	auditErrCorruptCredential   AuditErrorCode = "corrupt_credential"
	auditErrDerivationFailed    AuditErrorCode = "derivation_failed"
	auditErrMismatch            AuditErrorCode = "mismatch"
	auditErrRandomSource        AuditErrorCode = "random_source"
	auditErrPoolStopped         AuditErrorCode = "pool_stopped"
	auditErrEngineClosed        AuditErrorCode = "engine_closed"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	opID string,
	success bool,
	code AuditErrorCode,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	e.audit.Emit(ctx, AuditEvent{
		Timestamp:   time.Now().UTC(),
		EventType:   eventType,
		OperationID: opID,
		Algorithm:   e.kdf.Name(),
		UserID:      userIDFromContext(ctx),
		TenantID:    tenantIDFromContext(ctx),
		Success:     success,
		Error:       string(code),
		Metadata:    metadata,
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrMalformedFieldCount):
		return auditErrMalformedFieldCount
	case errors.Is(err, ErrUnrecognizedPrefix):
		return auditErrUnrecognizedPrefix
	case errors.Is(err, ErrCorruptCredential):
		return auditErrCorruptCredential
	case errors.Is(err, ErrDerivationFailed):
		return auditErrDerivationFailed
	case errors.Is(err, ErrRandomSource):
		return auditErrRandomSource
	case errors.Is(err, ErrPoolStopped):
		return auditErrPoolStopped
	case errors.Is(err, ErrEngineClosed):
		return auditErrEngineClosed
	default:
		return auditErrInternal
	}
}

// AuditDropped reports audit events discarded because the dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}
