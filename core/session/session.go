// Package session holds the server-side session registry. A session binds an
// opaque token to one authenticated identity and its role; its lifetime is a
// fixed TTL from creation (not sliding) and it dies on logout or expiry.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kavinkishorej-ui/academia/core"
	"github.com/kavinkishorej-ui/academia/core/user"
)

var (
	NowFunc = time.Now // mockable

	// ErrNotFound covers unknown and expired tokens alike.
	ErrNotFound = errors.New("session not found")
)

type (
	Session struct {
		Token     string    `json:"-" db:"token"`
		UserID    int       `json:"userId" db:"user_id"`
		Role      user.Role `json:"role" db:"role"`
		CreatedAt time.Time `json:"createdAt" db:"created_at"` // UTC
		ExpiresAt time.Time `json:"expiresAt" db:"expires_at"` // UTC
	}

	Repository interface {
		CreateSession(ctx context.Context, s Session) error
		GetSession(ctx context.Context, token string) (Session, error)
		DeleteSession(ctx context.Context, token string) error
	}

	Manager interface {
		// Open establishes a session for usr and returns its opaque token.
		Open(ctx context.Context, usr user.User) (Session, error)
		// Get resolves a token; ErrNotFound when unknown or expired.
		// Expired records are reaped lazily here, not by a sweeper.
		Get(ctx context.Context, token string) (Session, error)
		// Close destroys the session; closing twice is not an error.
		Close(ctx context.Context, token string) error
	}

	manager struct {
		repo Repository
		ttl  time.Duration
	}
)

var _ Manager = (*manager)(nil)

func NewManager(repo Repository) Manager {
	return &manager{repo: repo, ttl: core.Conf.SessionTTL}
}

func (m *manager) Open(ctx context.Context, usr user.User) (Session, error) {
	now := NowFunc().UTC()
	s := Session{
		Token:     uuid.New().String(),
		UserID:    usr.ID,
		Role:      usr.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.repo.CreateSession(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (m *manager) Get(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNotFound
	}
	s, err := m.repo.GetSession(ctx, token)
	if err != nil {
		return Session{}, err
	}
	if NowFunc().UTC().After(s.ExpiresAt) {
		_ = m.repo.DeleteSession(ctx, token) // best-effort reap
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *manager) Close(ctx context.Context, token string) error {
	if err := m.repo.DeleteSession(ctx, token); err != nil && err != ErrNotFound {
		return err
	}
	return nil
}
