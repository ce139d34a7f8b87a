package dummydb

import (
	"context"

	"github.com/kavinkishorej-ui/academia/core/session"
)

type sessionRepository struct {
	db *sessionTable
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository(db *DB) session.Repository {
	return &sessionRepository{db: db.session}
}

func (repo *sessionRepository) CreateSession(ctx context.Context, s session.Session) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[s.Token] = &s
	return nil
}

func (repo *sessionRepository) GetSession(ctx context.Context, token string) (session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[token]; ok {
		return *s, nil
	}
	return session.Session{}, session.ErrNotFound
}

func (repo *sessionRepository) DeleteSession(ctx context.Context, token string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[token]; !ok {
		return session.ErrNotFound
	}
	delete(repo.db.table, token)
	return nil
}
