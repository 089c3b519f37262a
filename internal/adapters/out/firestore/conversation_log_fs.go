// internal/adapters/out/firestore/conversation_log_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	convdom "messenger/internal/domain/conversation"
	msgdom "messenger/internal/domain/message"
)

// LogFS implements conversation.Log on conversations/<id> documents whose
// messages array holds the whole ordered log. Appends are whole-list
// read-modify-write like the directory side.
type LogFS struct {
	Client *gfs.Client
}

func NewLogFS(client *gfs.Client) *LogFS {
	return &LogFS{Client: client}
}

func (r *LogFS) logDoc(id string) *gfs.DocumentRef {
	return r.Client.Collection("conversations").Doc(id)
}

// =======================
// conversation.Log impl
// =======================

func (r *LogFS) Create(ctx context.Context, id string, first msgdom.StoredMessage) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return convdom.ErrInvalidID
	}

	// Refuse to clobber an existing log. Ids derive from message ids, so a
	// collision means a duplicate first message (or a clock rollback).
	_, err := r.logDoc(id).Get(ctx)
	switch {
	case err == nil:
		return fmt.Errorf("%w: log %s", convdom.ErrConflict, id)
	case status.Code(err) == codes.NotFound:
		// expected
	default:
		return fmt.Errorf("%w: %v", convdom.ErrFailedToFetch, err)
	}

	value := map[string]any{
		"messages": []map[string]any{first.ToMap()},
	}
	if _, err := r.logDoc(id).Set(ctx, value); err != nil {
		return fmt.Errorf("create log: %w", err)
	}
	return nil
}

func (r *LogFS) Append(ctx context.Context, id string, sm msgdom.StoredMessage) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return convdom.ErrInvalidID
	}

	records, err := r.storedList(ctx, id)
	if err != nil {
		return err
	}

	list := make([]map[string]any, 0, len(records)+1)
	for _, rec := range records {
		list = append(list, rec.ToMap())
	}
	list = append(list, sm.ToMap())

	if _, err := r.logDoc(id).Set(ctx, map[string]any{"messages": list}); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

func (r *LogFS) Messages(ctx context.Context, id string) ([]msgdom.Message, error) {
	records, err := r.storedList(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	return msgdom.DecodeAll(records), nil
}

// Subscribe opens a snapshot listener on the log document. Every change
// re-delivers the entire decoded list; the listener stops when ctx ends
// and the channel closes.
func (r *LogFS) Subscribe(ctx context.Context, id string) (<-chan []msgdom.Message, error) {
	if r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, convdom.ErrInvalidID
	}

	ch := make(chan []msgdom.Message, 1)
	it := r.logDoc(id).Snapshots(ctx)

	go func() {
		defer close(ch)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("[log_fs] snapshot stream for %s ended: %v", id, err)
				}
				return
			}
			if !snap.Exists() {
				// No log yet: deliver nothing until the first message.
				continue
			}
			msgs := msgdom.DecodeAll(decodeStoredList(snap.Data()))
			select {
			case ch <- msgs:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// =======================
// helpers
// =======================

func (r *LogFS) storedList(ctx context.Context, id string) ([]msgdom.StoredMessage, error) {
	doc, err := r.logDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return []msgdom.StoredMessage{}, nil
		}
		return nil, fmt.Errorf("%w: %v", convdom.ErrFailedToFetch, err)
	}
	return decodeStoredList(doc.Data()), nil
}

func decodeStoredList(data map[string]any) []msgdom.StoredMessage {
	raw, ok := data["messages"].([]any)
	if !ok {
		return []msgdom.StoredMessage{}
	}
	out := make([]msgdom.StoredMessage, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		sm, err := msgdom.StoredMessageFromMap(m)
		if err != nil {
			continue
		}
		out = append(out, sm)
	}
	return out
}
