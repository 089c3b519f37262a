// internal/adapters/out/db/user_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	userdom "messenger/internal/domain/user"
)

type UserRepositoryPG struct {
	DB *sql.DB
}

func NewUserRepositoryPG(dbc *sql.DB) *UserRepositoryPG {
	return &UserRepositoryPG{DB: dbc}
}

// =======================
// user.Repository impl
// =======================

func (r *UserRepositoryPG) Exists(ctx context.Context, email string) (bool, error) {
	key := userdom.SafeEmail(strings.TrimSpace(email))
	if key == "" {
		return false, nil
	}
	var one int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM chat_users WHERE safe_email = $1`, key).Scan(&one)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", userdom.ErrFailedToFetch, err)
	}
}

func (r *UserRepositoryPG) Insert(ctx context.Context, u userdom.ChatUser) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_users (safe_email, first_name, last_name) VALUES ($1, $2, $3)`,
		u.SafeEmail(), u.FirstName, u.LastName,
	); err != nil {
		return fmt.Errorf("insert user node: %w", err)
	}

	entry := userdom.DirectoryEntryOf(u)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO directory_users (name, email) VALUES ($1, $2)`,
		entry.Name, entry.Email,
	); err != nil {
		return fmt.Errorf("insert search entry: %w", err)
	}

	return tx.Commit()
}

func (r *UserRepositoryPG) Get(ctx context.Context, safeEmail string) (userdom.ChatUser, error) {
	var first, last string
	err := r.DB.QueryRowContext(ctx,
		`SELECT first_name, last_name FROM chat_users WHERE safe_email = $1`,
		strings.TrimSpace(safeEmail)).Scan(&first, &last)
	switch {
	case err == nil:
		return userdom.ChatUser{FirstName: first, LastName: last}, nil
	case errors.Is(err, sql.ErrNoRows):
		return userdom.ChatUser{}, userdom.ErrNotFound
	default:
		return userdom.ChatUser{}, fmt.Errorf("%w: %v", userdom.ErrFailedToFetch, err)
	}
}

func (r *UserRepositoryPG) ListAll(ctx context.Context) ([]userdom.DirectoryEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT name, email FROM directory_users ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", userdom.ErrFailedToFetch, err)
	}
	defer rows.Close()

	out := []userdom.DirectoryEntry{}
	for rows.Next() {
		var e userdom.DirectoryEntry
		if err := rows.Scan(&e.Name, &e.Email); err != nil {
			return nil, fmt.Errorf("%w: %v", userdom.ErrFailedToFetch, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", userdom.ErrFailedToFetch, err)
	}
	return out, nil
}
