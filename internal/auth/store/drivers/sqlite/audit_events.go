package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/techfolio/authd/internal/auth/domain"
)

type auditEventsRepo struct {
	db *sql.DB
}

func (r *auditEventsRepo) InsertAuditEvent(ctx context.Context, ev domain.AuditEvent) error {
	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events
			(id, event_type, subject, session_index, resource, action, success, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Type, ev.Subject, ev.SessionIndex, ev.Resource, ev.Action,
		boolToInt(ev.Success), ev.Detail, createdAt)
	return err
}

func (r *auditEventsRepo) DeleteAuditEventsBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM audit_events WHERE created_at < ?`, cutoff)
	return err
}

func (r *auditEventsRepo) CountAuditEvents(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_events`).Scan(&count)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return count, nil
}
