package audit

import (
	"context"
	"time"

	"github.com/techfolio/authd/internal/auth/domain"
	"github.com/techfolio/authd/internal/auth/store"
	"github.com/techfolio/authd/pkg/idx"
)

// StoreSink appends events to the audit_events table. Writes are bounded by
// WriteTimeout so a slow database cannot stall the caller for long; the
// orchestrator additionally swallows any error we return.
type StoreSink struct {
	Store        store.Store
	WriteTimeout time.Duration
}

const defaultWriteTimeout = 2 * time.Second

func (s *StoreSink) Record(ctx context.Context, ev domain.AuditEvent) error {
	if ev.ID == "" {
		ev.ID = idx.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	timeout := s.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return s.Store.AuditEvents().InsertAuditEvent(ctx, ev)
}
