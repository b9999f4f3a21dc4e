// Package userstore provides the marketauth.UserStore implementations: a
// Postgres repository for production and an in-memory map for tests.
package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/manfra-io/marketauth"
)

const uniqueViolation = "23505"

// Postgres stores credential records in a users table. It satisfies
// marketauth.UserStore and maps driver errors onto the engine's sentinels.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open database handle. The handle is expected to use
// the pgx stdlib driver.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the users table when it does not exist. It is safe
// to run on every startup.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			email          TEXT NOT NULL UNIQUE,
			password_hash  TEXT NOT NULL,
			role           TEXT NOT NULL,
			is_worker      BOOLEAN NOT NULL DEFAULT FALSE,
			twofa_enabled  BOOLEAN NOT NULL DEFAULT FALSE,
			twofa_secret   TEXT NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure users table: %w", err)
	}
	return nil
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (marketauth.UserRecord, error) {
	return p.getUser(ctx, `
		SELECT id, name, email, password_hash, role, is_worker, twofa_enabled, twofa_secret
		FROM users
		WHERE email = $1
	`, email)
}

func (p *Postgres) GetUserByID(ctx context.Context, userID string) (marketauth.UserRecord, error) {
	return p.getUser(ctx, `
		SELECT id, name, email, password_hash, role, is_worker, twofa_enabled, twofa_secret
		FROM users
		WHERE id = $1
	`, userID)
}

func (p *Postgres) getUser(ctx context.Context, query, arg string) (marketauth.UserRecord, error) {
	var user marketauth.UserRecord
	err := p.db.QueryRowContext(ctx, query, arg).Scan(
		&user.UserID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Role, &user.IsWorker, &user.TwoFAEnabled, &user.TwoFASecret,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return marketauth.UserRecord{}, marketauth.ErrUserNotFound
		}
		return marketauth.UserRecord{}, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

func (p *Postgres) CreateUser(ctx context.Context, input marketauth.CreateUserInput) (marketauth.UserRecord, error) {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, is_worker)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, input.UserID, input.Name, input.Email, input.PasswordHash, input.Role, input.IsWorker)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return marketauth.UserRecord{}, marketauth.ErrEmailExists
		}
		return marketauth.UserRecord{}, fmt.Errorf("insert user: %w", err)
	}

	return marketauth.UserRecord{
		UserID:       input.UserID,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
		IsWorker:     input.IsWorker,
	}, nil
}

func (p *Postgres) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return p.updateUser(ctx, `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`, userID, newHash)
}

func (p *Postgres) SetTwoFASecret(ctx context.Context, userID, secret string) error {
	return p.updateUser(ctx, `
		UPDATE users
		SET twofa_secret = $2, updated_at = NOW()
		WHERE id = $1
	`, userID, secret)
}

func (p *Postgres) EnableTwoFA(ctx context.Context, userID string) error {
	return p.updateUser(ctx, `
		UPDATE users
		SET twofa_enabled = TRUE, updated_at = NOW()
		WHERE id = $1
	`, userID)
}

func (p *Postgres) updateUser(ctx context.Context, query string, args ...any) error {
	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if affected == 0 {
		return marketauth.ErrUserNotFound
	}
	return nil
}
