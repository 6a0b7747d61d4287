package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dncore/swi/pkg/types"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("not found")

// CreateUser inserts a new account.
func (s *Store) CreateUser(ctx context.Context, u *types.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, password_hash, permission, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.PasswordHash, u.Permission, u.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

// GetUserByName looks up an account by its unique login name.
func (s *Store) GetUserByName(ctx context.Context, name string) (*types.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, password_hash, permission, last_login_at, last_address, created_at FROM users WHERE name = ?`, name)
	return scanUser(row)
}

// GetUser looks up an account by id.
func (s *Store) GetUser(ctx context.Context, id string) (*types.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, password_hash, permission, last_login_at, last_address, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// ListUsers returns every account, ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]*types.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, password_hash, permission, last_login_at, last_address, created_at FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*types.User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// DeleteUser removes an account and its sessions (ON DELETE CASCADE).
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

// TouchLastLogin stamps a user's last_login_at to now.
func (s *Store) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`, at.UTC().Format(time.RFC3339), id)
	return err
}

// TouchLastAddress records the remote address a user most recently
// authenticated from.
func (s *Store) TouchLastAddress(ctx context.Context, id, addr string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_address = ? WHERE id = ?`, addr, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row *sql.Row) (*types.User, error) {
	return scanUserRows(row)
}

func scanUserRows(row rowScanner) (*types.User, error) {
	var u types.User
	var lastLogin, lastAddress sql.NullString
	var createdAt string
	if err := row.Scan(&u.ID, &u.Name, &u.PasswordHash, &u.Permission, &lastLogin, &lastAddress, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		u.CreatedAt = t
	}
	if lastLogin.Valid {
		if t, err := time.Parse(time.RFC3339, lastLogin.String); err == nil {
			u.LastLoginAt = &t
		}
	}
	u.LastAddress = lastAddress.String
	return &u, nil
}

// CreateSession persists a new opaque session token.
func (s *Store) CreateSession(ctx context.Context, sess *types.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		sess.Token, sess.UserID, sess.ExpiresAt.UTC().Format(time.RFC3339))
	return err
}

// GetSession looks up a session by its token, returning ErrNotFound if
// it's missing or expired (expired rows are also opportunistically
// deleted).
func (s *Store) GetSession(ctx context.Context, token string) (*types.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT token, user_id, expires_at FROM sessions WHERE token = ?`, token)
	var sess types.Session
	var expiresAt string
	if err := row.Scan(&sess.Token, &sess.UserID, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		return nil, err
	}
	sess.ExpiresAt = t
	if time.Now().After(t) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
		return nil, ErrNotFound
	}
	return &sess, nil
}

// DeleteSession removes a session (logout).
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// PruneExpiredSessions deletes every session past its expiry, returning
// how many rows were removed.
func (s *Store) PruneExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
