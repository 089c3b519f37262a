// internal/adapters/out/firestore/user_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	userdom "messenger/internal/domain/user"
)

// Firestore collection / document layout:
//
//	users/<safeEmail>        -> { first_name, last_name, conversations: [...] }
//	directory/users          -> { users: [ { name, email }, ... ] }
//
// The flat directory/users list backs user search and is rewritten whole on
// each insert, mirroring the store's "replace this subtree" primitive.
type UserRepositoryFS struct {
	Client *gfs.Client
}

func NewUserRepositoryFS(client *gfs.Client) *UserRepositoryFS {
	return &UserRepositoryFS{Client: client}
}

func (r *UserRepositoryFS) userDoc(safeEmail string) *gfs.DocumentRef {
	return r.Client.Collection("users").Doc(safeEmail)
}

func (r *UserRepositoryFS) directoryDoc() *gfs.DocumentRef {
	return r.Client.Collection("directory").Doc("users")
}

// =======================
// user.Repository impl
// =======================

func (r *UserRepositoryFS) Exists(ctx context.Context, email string) (bool, error) {
	if r.Client == nil {
		return false, errors.New("firestore client is nil")
	}
	key := userdom.SafeEmail(strings.TrimSpace(email))
	if key == "" {
		return false, nil
	}

	_, err := r.userDoc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", userdom.ErrFailedToFetch, err)
	}
	return true, nil
}

func (r *UserRepositoryFS) Insert(ctx context.Context, u userdom.ChatUser) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}

	// Per-user node. MergeAll keeps a conversations field intact if the
	// node is ever re-inserted.
	node := map[string]any{
		"first_name": u.FirstName,
		"last_name":  u.LastName,
	}
	if _, err := r.userDoc(u.SafeEmail()).Set(ctx, node, gfs.MergeAll); err != nil {
		return fmt.Errorf("write user node: %w", err)
	}

	// Flat search list: read whole list, append, write back whole list.
	entries, err := r.ListAll(ctx)
	if err != nil {
		return err
	}
	entries = append(entries, userdom.DirectoryEntryOf(u))

	raw := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		raw = append(raw, map[string]any{"name": e.Name, "email": e.Email})
	}
	if _, err := r.directoryDoc().Set(ctx, map[string]any{"users": raw}); err != nil {
		return fmt.Errorf("write users list: %w", err)
	}
	return nil
}

// Get loads the account node. The stored node carries names only (the key
// itself is derived from the email and the derivation is not reversible),
// so Email is left empty.
func (r *UserRepositoryFS) Get(ctx context.Context, safeEmail string) (userdom.ChatUser, error) {
	if r.Client == nil {
		return userdom.ChatUser{}, errors.New("firestore client is nil")
	}

	doc, err := r.userDoc(strings.TrimSpace(safeEmail)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return userdom.ChatUser{}, userdom.ErrNotFound
		}
		return userdom.ChatUser{}, fmt.Errorf("%w: %v", userdom.ErrFailedToFetch, err)
	}

	data := doc.Data()
	getStr := func(key string) string {
		if v, ok := data[key].(string); ok {
			return strings.TrimSpace(v)
		}
		return ""
	}
	return userdom.ChatUser{
		FirstName: getStr("first_name"),
		LastName:  getStr("last_name"),
	}, nil
}

// ListAll returns the flat search list. A missing directory document is an
// empty list, not an error.
func (r *UserRepositoryFS) ListAll(ctx context.Context) ([]userdom.DirectoryEntry, error) {
	if r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}

	doc, err := r.directoryDoc().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return []userdom.DirectoryEntry{}, nil
		}
		return nil, fmt.Errorf("%w: %v", userdom.ErrFailedToFetch, err)
	}

	raw, ok := doc.Data()["users"].([]any)
	if !ok {
		return []userdom.DirectoryEntry{}, nil
	}

	out := make([]userdom.DirectoryEntry, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		e := userdom.DirectoryEntry{}
		if v, ok := m["name"].(string); ok {
			e.Name = strings.TrimSpace(v)
		}
		if v, ok := m["email"].(string); ok {
			e.Email = strings.TrimSpace(v)
		}
		if e.Email == "" {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
