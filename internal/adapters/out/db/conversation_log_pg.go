// internal/adapters/out/db/conversation_log_pg.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lib/pq"

	convdom "messenger/internal/domain/conversation"
	msgdom "messenger/internal/domain/message"
)

// LogPG implements conversation.Log on the conversation_logs table. The
// messages column is one jsonb list per conversation, rewritten whole on
// append. Watches ride on LISTEN/NOTIFY: every writer notifies the
// per-conversation channel and subscribers re-read the full log, which
// reproduces the document store's full-snapshot delivery.
type LogPG struct {
	DB *sql.DB

	// dsn is needed to open dedicated LISTEN connections; a pq.Listener
	// cannot share the pooled *sql.DB.
	dsn string
}

func NewLogPG(dbc *sql.DB, dsn string) *LogPG {
	return &LogPG{DB: dbc, dsn: dsn}
}

func logChannel(id string) string {
	return "conversation_log_" + id
}

// =======================
// conversation.Log impl
// =======================

func (r *LogPG) Create(ctx context.Context, id string, first msgdom.StoredMessage) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return convdom.ErrInvalidID
	}

	raw, err := json.Marshal([]msgdom.StoredMessage{first})
	if err != nil {
		return fmt.Errorf("encode log: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, `
INSERT INTO conversation_logs (id, messages) VALUES ($1, $2)
ON CONFLICT (id) DO NOTHING
`, id, raw)
	if err != nil {
		return fmt.Errorf("create log: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: log %s", convdom.ErrConflict, id)
	}

	r.notify(ctx, id)
	return nil
}

func (r *LogPG) Append(ctx context.Context, id string, sm msgdom.StoredMessage) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return convdom.ErrInvalidID
	}

	records, err := r.storedList(ctx, id)
	if err != nil {
		return err
	}
	records = append(records, sm)

	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode log: %w", err)
	}
	if _, err := r.DB.ExecContext(ctx, `
INSERT INTO conversation_logs (id, messages) VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET messages = EXCLUDED.messages
`, id, raw); err != nil {
		return fmt.Errorf("append log: %w", err)
	}

	r.notify(ctx, id)
	return nil
}

func (r *LogPG) Messages(ctx context.Context, id string) ([]msgdom.Message, error) {
	records, err := r.storedList(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	return msgdom.DecodeAll(records), nil
}

func (r *LogPG) Subscribe(ctx context.Context, id string) (<-chan []msgdom.Message, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, convdom.ErrInvalidID
	}

	listener := pq.NewListener(r.dsn, 10*time.Second, time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Printf("[log_pg] listener event %v: %v", ev, err)
			}
		})
	if err := listener.Listen(logChannel(id)); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen %s: %w", logChannel(id), err)
	}

	ch := make(chan []msgdom.Message, 1)
	go func() {
		defer close(ch)
		defer func() { _ = listener.Close() }()

		deliver := func() bool {
			msgs, err := r.Messages(ctx, id)
			if err != nil {
				log.Printf("[log_pg] re-read of %s failed: %v", id, err)
				return true
			}
			if len(msgs) == 0 {
				// Absent or empty log: deliver nothing until the first
				// message exists.
				return true
			}
			select {
			case ch <- msgs:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !deliver() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.Notify:
				if !deliver() {
					return
				}
			case <-time.After(90 * time.Second):
				go func() { _ = listener.Ping() }()
			}
		}
	}()

	return ch, nil
}

// =======================
// helpers
// =======================

func (r *LogPG) storedList(ctx context.Context, id string) ([]msgdom.StoredMessage, error) {
	var raw []byte
	err := r.DB.QueryRowContext(ctx,
		`SELECT messages FROM conversation_logs WHERE id = $1`, id).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return []msgdom.StoredMessage{}, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %v", convdom.ErrFailedToFetch, err)
	}

	var records []msgdom.StoredMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", convdom.ErrFailedToFetch, err)
	}
	return records, nil
}

// notify is best-effort: a missed notification only delays subscribers
// until the next write.
func (r *LogPG) notify(ctx context.Context, id string) {
	if _, err := r.DB.ExecContext(ctx, `SELECT pg_notify($1, '')`, logChannel(id)); err != nil {
		log.Printf("[log_pg] notify %s failed: %v", id, err)
	}
}
