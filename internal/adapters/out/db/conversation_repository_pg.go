// internal/adapters/out/db/conversation_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	convdom "messenger/internal/domain/conversation"
)

// DirectoryPG implements conversation.Directory on the user_directories
// table. The conversations column is one jsonb list per owner, read and
// rewritten whole; there is deliberately no row locking, so concurrent
// appenders to the same owner race exactly as they do on the document
// store (last writer wins).
type DirectoryPG struct {
	DB *sql.DB
}

func NewDirectoryPG(dbc *sql.DB) *DirectoryPG {
	return &DirectoryPG{DB: dbc}
}

// =======================
// conversation.Directory impl
// =======================

func (r *DirectoryPG) Exists(ctx context.Context, owner, counterpart string) (string, error) {
	summaries, err := r.List(ctx, owner)
	if err != nil {
		return "", err
	}
	for _, s := range summaries {
		if s.CounterpartKey == counterpart {
			return s.ID, nil
		}
	}
	return "", convdom.ErrNotFound
}

func (r *DirectoryPG) Append(ctx context.Context, owner string, s convdom.Summary) error {
	if err := s.Validate(); err != nil {
		return err
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return convdom.ErrInvalidSummary
	}

	list, err := r.List(ctx, owner)
	if err != nil {
		return err
	}
	list = append(list, s)

	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode conversations: %w", err)
	}
	if _, err := r.DB.ExecContext(ctx, `
INSERT INTO user_directories (owner_key, conversations) VALUES ($1, $2)
ON CONFLICT (owner_key) DO UPDATE SET conversations = EXCLUDED.conversations
`, owner, raw); err != nil {
		return fmt.Errorf("write conversations: %w", err)
	}
	return nil
}

func (r *DirectoryPG) List(ctx context.Context, owner string) ([]convdom.Summary, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, convdom.ErrInvalidSummary
	}

	var raw []byte
	err := r.DB.QueryRowContext(ctx,
		`SELECT conversations FROM user_directories WHERE owner_key = $1`, owner).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return []convdom.Summary{}, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %v", convdom.ErrFailedToFetch, err)
	}

	var list []convdom.Summary
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", convdom.ErrFailedToFetch, err)
	}

	out := make([]convdom.Summary, 0, len(list))
	for _, s := range list {
		if s.Validate() != nil {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
