package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

// UserStore holds accounts and their bearer-token sessions.
type UserStore struct {
	db *sqlx.DB
}

func (s *UserStore) Insert(ctx context.Context, u *domain.User) error {
	id, err := insertReturningID(ctx, s.db,
		`INSERT INTO users(email, password_hash, role) VALUES (?, ?, ?)`, u.Email, u.PasswordHash, u.Role)
	if err != nil {
		if isUniqueViolation(err) {
			err = &domain.ConstraintError{Entity: "User", Field: "email", Value: u.Email, Err: err}
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	return nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT id, email, password_hash, role FROM users WHERE email = ?`), email)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, fmt.Errorf("user %q: %w", email, domain.ErrNotFound)
	}
	return u, err
}

func (s *UserStore) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO sessions(token, user_id, expires_at) VALUES (?, ?, ?)`),
		token, userID, expiresAt.Unix())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// SessionUser resolves a token to its user if the session has not expired at now.
func (s *UserStore) SessionUser(ctx context.Context, token string, now time.Time) (domain.User, error) {
	var u domain.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT u.id, u.email, u.password_hash, u.role
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?`), token, now.Unix())
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrInvalidToken
	}
	return u, err
}

// DeleteExpiredSessions prunes sessions that expired before now.
func (s *UserStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE expires_at <= ?`), now.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return res.RowsAffected()
}
