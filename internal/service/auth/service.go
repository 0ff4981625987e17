// Package auth logs shop users in and resolves their session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"lojavirtual/internal/domain"
	tokenrepo "lojavirtual/internal/repository/token"
)

type userRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Session is an issued login token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type Service struct {
	users  userRepo
	tokens *tokenManager
	ttl    time.Duration
}

// New creates a Service issuing tokens valid for ttl (48h when zero).
func New(users userRepo, tokens tokenrepo.Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &Service{
		users:  users,
		tokens: newTokenManager(tokens, time.Now),
		ttl:    ttl,
	}
}

// Login checks the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, domain.InvalidCredentials()
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.InvalidCredentials()
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.InvalidCredentials()
	}

	token, expiresAt, err := s.tokens.Issue(ctx, u.ID, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

// LookupByToken returns the user bound to a valid session token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.Unauthenticated()
	}
	userID, err := s.tokens.Validate(ctx, token)
	switch {
	case errors.Is(err, errTokenExpired):
		return nil, domain.SessionExpired()
	case errors.Is(err, domain.ErrNotFound):
		return nil, domain.Unauthenticated()
	case err != nil:
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Unauthenticated()
		}
		return nil, err
	}
	return u, nil
}

// Logout revokes token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, token)
}

// TokenTTL exposes the session lifetime.
func (s *Service) TokenTTL() time.Duration {
	return s.ttl
}

const passwordMin = 8

// HashPassword checks the password policy and returns its bcrypt hash.
func HashPassword(password string) (string, error) {
	password = strings.TrimSpace(password)
	if err := validatePassword(password, passwordMin); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func validatePassword(p string, min int) error {
	if len(p) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
