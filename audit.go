package goHash

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// AuditEvent records the outcome of a single Compute or Verify call. It never
// carries passwords, salts or derived keys.
type AuditEvent struct {
	Timestamp   time.Time         `json:"timestamp"`
	EventType   string            `json:"event_type"`
	OperationID string            `json:"operation_id"`
	Algorithm   string            `json:"algorithm"`
	UserID      string            `json:"user_id,omitempty"`
	TenantID    string            `json:"tenant_id,omitempty"`
	Success     bool              `json:"success"`
	Error       string            `json:"error,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink hands events to a consumer goroutine. Emit blocks until the
// consumer makes room or ctx is done.
type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{events: make(chan AuditEvent, max(buffer, 1))}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent { return s.events }

// LogSink writes each event as one structured zerolog entry. Successful
// operations log at info, failed ones at warn, so a level filter on the
// logger keeps only failures.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink returns a sink that writes through logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// NewJSONLinesSink returns a LogSink writing one JSON object per line to w.
// Concurrent writes to w are serialized.
func NewJSONLinesSink(w io.Writer) *LogSink {
	return NewLogSink(zerolog.New(zerolog.SyncWriter(w)))
}

func (s *LogSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil {
		return
	}

	entry := s.logger.Info()
	if !event.Success {
		entry = s.logger.Warn()
	}
	if entry == nil {
		return
	}

	entry = entry.
		Time("timestamp", event.Timestamp).
		Str("event_type", event.EventType).
		Str("operation_id", event.OperationID).
		Str("algorithm", event.Algorithm).
		Bool("success", event.Success)
	if event.UserID != "" {
		entry = entry.Str("user_id", event.UserID)
	}
	if event.TenantID != "" {
		entry = entry.Str("tenant_id", event.TenantID)
	}
	if event.Error != "" {
		entry = entry.Str("error", event.Error)
	}
	if len(event.Metadata) > 0 {
		keys := make([]string, 0, len(event.Metadata))
		for k := range event.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		dict := zerolog.Dict()
		for _, k := range keys {
			dict = dict.Str(k, event.Metadata[k])
		}
		entry = entry.Dict("metadata", dict)
	}
	entry.Msg("audit")
}
