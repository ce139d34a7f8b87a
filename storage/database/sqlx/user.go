// Package sqlxrepos implements the repositories on Postgres via sqlx.
// Store constraints (uniqueness, reference protection) are enforced by the
// schema; violations are translated to core.ConflictError so services and
// handlers stay storage-agnostic.
package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kavinkishorej-ui/academia/core"
	"github.com/kavinkishorej-ui/academia/core/user"
)

// Postgres error classes 23505 (unique_violation) and 23503
// (foreign_key_violation) surface as conflicts.
func translateError(err error, conflictMsg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505", "23503":
			return core.NewConflictError(conflictMsg)
		}
	}
	return err
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	query := `
		INSERT INTO "user" (role, username, name, email, phone, must_change_password, password_hash,
		                    otp_hash, otp_expires_at, otp_consumed, created_at, updated_at, last_login)
		VALUES (:role, :username, :name, :email, :phone, :must_change_password, :password_hash,
		        :otp_hash, :otp_expires_at, :otp_consumed, :created_at, :updated_at, :last_login)
		RETURNING id`

	rows, err := sqlx.NamedQueryContext(ctx, repo.db, query, usr)
	if err != nil {
		return user.User{}, translateError(err, "a user with this identifier already exists")
	}
	defer func() { _ = rows.Close() }()
	if rows.Next() {
		if err = rows.Scan(&usr.ID); err != nil {
			return user.User{}, errors.Wrap(err, "scanning user id")
		}
	}
	return usr, rows.Err()
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	var usr user.User
	err := repo.db.GetContext(ctx, &usr, `SELECT * FROM "user" WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	return usr, err
}

func (repo *userRepository) GetUserByRoleAndUsername(ctx context.Context, role user.Role, username string) (user.User, error) {
	var usr user.User
	err := repo.db.GetContext(ctx, &usr, `SELECT * FROM "user" WHERE role = $1 AND username = $2`, role, username)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	return usr, err
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	query := `
		UPDATE "user"
		SET name                 = :name,
		    email                = :email,
		    phone                = :phone,
		    must_change_password = :must_change_password,
		    password_hash        = :password_hash,
		    otp_hash             = :otp_hash,
		    otp_expires_at       = :otp_expires_at,
		    otp_consumed         = :otp_consumed,
		    updated_at           = :updated_at,
		    last_login           = :last_login
		WHERE id = :id`

	res, err := sqlx.NamedExecContext(ctx, repo.db, query, usr)
	if err != nil {
		return user.User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	_, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	return err
}
