package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/techfolio/authd/internal/auth/domain"
)

type usersRepo struct {
	db *sql.DB
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT username, active, organization_id, created_at, updated_at
		FROM users WHERE username = ?`, username)

	var (
		u     domain.User
		org   sql.NullString
		activ int
	)
	if err := row.Scan(&u.Username, &activ, &org, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.Active = activ != 0
	u.OrganizationID = mapNullString(org)
	return u, nil
}

func (r *usersRepo) IsUserActive(ctx context.Context, username string) (bool, error) {
	var active int
	err := r.db.QueryRowContext(ctx,
		`SELECT active FROM users WHERE username = ?`, username).Scan(&active)
	if err != nil {
		return false, mapNotFound(err)
	}
	return active != 0, nil
}

func (r *usersRepo) GetOrganizationForUser(ctx context.Context, username string) (string, error) {
	var org sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT organization_id FROM users WHERE username = ?`, username).Scan(&org)
	if err != nil {
		return "", mapNotFound(err)
	}
	return mapNullString(org), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	var org any
	if u.OrganizationID != "" {
		org = u.OrganizationID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, active, organization_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.Username, boolToInt(u.Active), org, now, now)
	return err
}

func (r *usersRepo) SetUserActive(ctx context.Context, username string, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET active = ?, updated_at = ? WHERE username = ?`,
		boolToInt(active), time.Now().UTC(), username)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *usersRepo) AssignRole(ctx context.Context, username, roleID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_roles (username, role_id) VALUES (?, ?)`,
		username, roleID)
	return err
}

func (r *usersRepo) RemoveRole(ctx context.Context, username, roleID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM user_roles WHERE username = ? AND role_id = ?`,
		username, roleID)
	return err
}
