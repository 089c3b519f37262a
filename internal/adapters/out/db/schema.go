// internal/adapters/out/db/schema.go
package db

import (
	"context"
	"database/sql"
	"fmt"
)

// The Postgres adapters keep the document-store shape: per-owner directory
// lists and per-conversation logs are single jsonb values rewritten whole,
// matching the read-modify-write contract of the ports. Only the flat user
// search list is relational.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS chat_users (
	safe_email TEXT PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS directory_users (
	position SERIAL PRIMARY KEY,
	name     TEXT NOT NULL,
	email    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_directories (
	owner_key     TEXT PRIMARY KEY,
	conversations JSONB NOT NULL DEFAULT '[]'::jsonb
);

CREATE TABLE IF NOT EXISTS conversation_logs (
	id       TEXT PRIMARY KEY,
	messages JSONB NOT NULL DEFAULT '[]'::jsonb
);
`

// EnsureSchema creates the messenger tables when missing.
func EnsureSchema(ctx context.Context, dbc *sql.DB) error {
	if _, err := dbc.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
