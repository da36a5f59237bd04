package audit

import (
	"context"
	"log/slog"

	"github.com/techfolio/authd/internal/auth/domain"
)

// Sink receives authentication/authorization event facts. Sinks are
// append-only and are never consulted for decisions; callers treat delivery
// as best-effort.
type Sink interface {
	Record(ctx context.Context, ev domain.AuditEvent) error
}

// NopSink discards every event. Useful for tests and for deployments that
// route audit exclusively through logs.
type NopSink struct{}

func (NopSink) Record(context.Context, domain.AuditEvent) error { return nil }

// SlogSink emits events as structured log records.
type SlogSink struct {
	Logger *slog.Logger
}

func (s *SlogSink) Record(_ context.Context, ev domain.AuditEvent) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("audit_event",
		"event_id", ev.ID,
		"event_type", ev.Type,
		"subject", ev.Subject,
		"session_index", ev.SessionIndex,
		"resource", ev.Resource,
		"action", ev.Action,
		"success", ev.Success,
		"detail", ev.Detail,
	)
	return nil
}

// Fanout delivers each event to every sink. The first error is returned but
// delivery to the remaining sinks is still attempted.
type Fanout []Sink

func (f Fanout) Record(ctx context.Context, ev domain.AuditEvent) error {
	var first error
	for _, sink := range f {
		if err := sink.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
