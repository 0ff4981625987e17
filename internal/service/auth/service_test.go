package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lojavirtual/internal/domain"
	tokenrepo "lojavirtual/internal/repository/token"
)

type memoryUserRepo struct {
	users map[int64]domain.User
}

func (r *memoryUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *memoryUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memoryTokenRepo struct {
	tokens map[string]tokenrepo.Token
}

func newMemoryTokenRepo() *memoryTokenRepo {
	return &memoryTokenRepo{tokens: make(map[string]tokenrepo.Token)}
}

func (r *memoryTokenRepo) Create(_ context.Context, token tokenrepo.Token) error {
	if _, exists := r.tokens[token.Token]; exists {
		return domain.ErrAlreadyExists
	}
	r.tokens[token.Token] = token
	return nil
}

func (r *memoryTokenRepo) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *memoryTokenRepo) Delete(_ context.Context, token string) error {
	if _, ok := r.tokens[token]; !ok {
		return domain.ErrNotFound
	}
	delete(r.tokens, token)
	return nil
}

func (r *memoryTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for k, t := range r.tokens {
		if !now.Before(t.ExpiresAt) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

func newTestService(t *testing.T) (*Service, *memoryTokenRepo) {
	t.Helper()
	hash, err := HashPassword(" Senha123 ")
	require.NoError(t, err)
	users := &memoryUserRepo{users: map[int64]domain.User{
		1: {ID: 1, Email: "ana@example.com", PasswordHash: hash},
	}}
	tokens := newMemoryTokenRepo()
	return New(users, tokens, time.Hour), tokens
}

func TestLogin_IssuesTokenAndResolvesUser(t *testing.T) {
	svc, tokens := newTestService(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, " ANA@example.com", "Senha123")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	assert.Equal(t, int64(1), session.User.ID)
	assert.Len(t, tokens.tokens, 1)

	u, err := svc.LookupByToken(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)

	require.NoError(t, svc.Logout(ctx, session.Token))
	_, err = svc.LookupByToken(ctx, session.Token)
	assert.ErrorIs(t, err, domain.Unauthenticated())

	// revoking twice is harmless
	assert.NoError(t, svc.Logout(ctx, session.Token))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "ana@example.com", "errada")
	assert.ErrorIs(t, err, domain.InvalidCredentials())

	_, err = svc.Login(ctx, "missing@example.com", "Senha123")
	assert.ErrorIs(t, err, domain.InvalidCredentials())

	_, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, domain.InvalidCredentials())
}

func TestLookupByToken_Expired(t *testing.T) {
	svc, tokens := newTestService(t)
	ctx := context.Background()
	require.NoError(t, tokens.Create(ctx, tokenrepo.Token{
		Token:     "old",
		UserID:    1,
		Kind:      tokenrepo.KindSession,
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err := svc.LookupByToken(ctx, "old")
	var derr *domain.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, 1004, derr.Code)
	assert.NotContains(t, tokens.tokens, "old")
}

func TestLookupByToken_Empty(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.LookupByToken(context.Background(), " ")
	assert.ErrorIs(t, err, domain.Unauthenticated())
}

func TestHashPassword_RejectsWeakValues(t *testing.T) {
	cases := []struct {
		name string
		pass string
	}{
		{"too short", "Abc1"},
		{"no upper", "abcdefg1"},
		{"no lower", "ABCDEFG1"},
		{"no digit", "Abcdefgh"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := HashPassword(tc.pass)
			assert.Error(t, err)
		})
	}
}
