package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/repository"
)

// AuthService exchanges credentials for opaque bearer tokens.
type AuthService struct {
	users *repository.UserStore
	ttl   time.Duration
	now   func() time.Time
}

// CreateUser stores a new account with a bcrypt hash of password.
func (s *AuthService) CreateUser(ctx context.Context, email, password, role string) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{Email: email, PasswordHash: string(hash), Role: role}
	if err := s.users.Insert(ctx, &u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// Login checks the credentials and opens a session. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := s.users.CreateSession(ctx, token, u.ID, s.now().Add(s.ttl)); err != nil {
		return "", domain.User{}, err
	}
	return token, u, nil
}

// Verify resolves a token to its user, failing with ErrInvalidToken when the
// token is unknown or expired.
func (s *AuthService) Verify(ctx context.Context, token string) (domain.User, error) {
	if _, err := uuid.Parse(token); err != nil {
		return domain.User{}, domain.ErrInvalidToken
	}
	return s.users.SessionUser(ctx, token, s.now())
}

// PruneSessions deletes expired sessions and reports how many were removed.
func (s *AuthService) PruneSessions(ctx context.Context) (int64, error) {
	return s.users.DeleteExpiredSessions(ctx, s.now())
}
