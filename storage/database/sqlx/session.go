package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/kavinkishorej-ui/academia/core/session"
)

type sessionRepository struct {
	db *sqlx.DB
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository(db *sqlx.DB) session.Repository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) CreateSession(ctx context.Context, s session.Session) error {
	query := `
		INSERT INTO session (token, user_id, role, created_at, expires_at)
		VALUES (:token, :user_id, :role, :created_at, :expires_at)`
	_, err := sqlx.NamedExecContext(ctx, repo.db, query, s)
	return err
}

func (repo *sessionRepository) GetSession(ctx context.Context, token string) (session.Session, error) {
	var s session.Session
	err := repo.db.GetContext(ctx, &s, `SELECT * FROM session WHERE token = $1`, token)
	if err == sql.ErrNoRows {
		return session.Session{}, session.ErrNotFound
	}
	return s, err
}

func (repo *sessionRepository) DeleteSession(ctx context.Context, token string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM session WHERE token = $1`, token)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return session.ErrNotFound
	}
	return nil
}
