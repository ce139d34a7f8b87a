package session

import (
	"context"
	"testing"
	"time"

	"github.com/kavinkishorej-ui/academia/core"
	"github.com/kavinkishorej-ui/academia/core/user"
)

type memRepo struct {
	table map[string]Session
}

func newMemRepo() *memRepo { return &memRepo{table: make(map[string]Session)} }

func (r *memRepo) CreateSession(ctx context.Context, s Session) error {
	r.table[s.Token] = s
	return nil
}

func (r *memRepo) GetSession(ctx context.Context, token string) (Session, error) {
	if s, ok := r.table[token]; ok {
		return s, nil
	}
	return Session{}, ErrNotFound
}

func (r *memRepo) DeleteSession(ctx context.Context, token string) error {
	if _, ok := r.table[token]; !ok {
		return ErrNotFound
	}
	delete(r.table, token)
	return nil
}

func TestManager(t *testing.T) {
	defer func() { NowFunc = time.Now }()

	usr := user.User{ID: 7, Role: user.RoleTeacher}
	ctx := context.Background()

	t.Run("open and get", func(t *testing.T) {
		repo := newMemRepo()
		mgr := NewManager(repo)

		s, err := mgr.Open(ctx, usr)
		if err != nil {
			t.Fatalf("Open() failed: %v", err)
		}
		if s.Token == "" {
			t.Fatal("Open() returned empty token")
		}
		if s.UserID != usr.ID || s.Role != usr.Role {
			t.Errorf("Open() session = %+v, want user %d role %s", s, usr.ID, usr.Role)
		}
		if got := s.ExpiresAt.Sub(s.CreatedAt); got != core.Conf.SessionTTL {
			t.Errorf("Open() TTL = %v, want %v", got, core.Conf.SessionTTL)
		}

		got, err := mgr.Get(ctx, s.Token)
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if got.Token != s.Token {
			t.Errorf("Get() token = %q, want %q", got.Token, s.Token)
		}
	})

	t.Run("tokens are unique", func(t *testing.T) {
		repo := newMemRepo()
		mgr := NewManager(repo)
		s1, _ := mgr.Open(ctx, usr)
		s2, _ := mgr.Open(ctx, usr)
		if s1.Token == s2.Token {
			t.Error("Open() reissued the same token")
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		mgr := NewManager(newMemRepo())
		if _, err := mgr.Get(ctx, "nope"); err != ErrNotFound {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
		if _, err := mgr.Get(ctx, ""); err != ErrNotFound {
			t.Errorf("Get() empty token error = %v, want ErrNotFound", err)
		}
	})

	t.Run("fixed TTL, not sliding", func(t *testing.T) {
		repo := newMemRepo()
		mgr := NewManager(repo)
		s, _ := mgr.Open(ctx, usr)

		// activity half-way through must not extend the deadline
		NowFunc = func() time.Time { return s.CreatedAt.Add(core.Conf.SessionTTL / 2) }
		got, err := mgr.Get(ctx, s.Token)
		if err != nil {
			t.Fatalf("Get() mid-life failed: %v", err)
		}
		if !got.ExpiresAt.Equal(s.ExpiresAt) {
			t.Errorf("Get() moved ExpiresAt from %v to %v", s.ExpiresAt, got.ExpiresAt)
		}

		NowFunc = func() time.Time { return s.ExpiresAt.Add(time.Second) }
		if _, err = mgr.Get(ctx, s.Token); err != ErrNotFound {
			t.Errorf("Get() past deadline error = %v, want ErrNotFound", err)
		}
		NowFunc = time.Now

		// the expired record was reaped
		if _, ok := repo.table[s.Token]; ok {
			t.Error("expired session not reaped")
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		repo := newMemRepo()
		mgr := NewManager(repo)
		s, _ := mgr.Open(ctx, usr)

		if err := mgr.Close(ctx, s.Token); err != nil {
			t.Fatalf("Close() failed: %v", err)
		}
		if _, err := mgr.Get(ctx, s.Token); err != ErrNotFound {
			t.Errorf("Get() after Close() error = %v, want ErrNotFound", err)
		}
		if err := mgr.Close(ctx, s.Token); err != nil {
			t.Errorf("Close() twice error = %v, want nil", err)
		}
	})
}
