// internal/adapters/out/firestore/conversation_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	convdom "messenger/internal/domain/conversation"
)

// DirectoryFS implements conversation.Directory on the conversations array
// embedded in each users/<safeEmail> document. The array is always read and
// rewritten whole; concurrent writers to the same owner race and the last
// write wins.
type DirectoryFS struct {
	Client *gfs.Client
}

func NewDirectoryFS(client *gfs.Client) *DirectoryFS {
	return &DirectoryFS{Client: client}
}

func (r *DirectoryFS) userDoc(owner string) *gfs.DocumentRef {
	return r.Client.Collection("users").Doc(owner)
}

// =======================
// conversation.Directory impl
// =======================

func (r *DirectoryFS) Exists(ctx context.Context, owner, counterpart string) (string, error) {
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

func (r *DirectoryFS) Append(ctx context.Context, owner string, s convdom.Summary) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}
	if err := s.Validate(); err != nil {
		return err
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return convdom.ErrInvalidSummary
	}

	// The owner node must already exist: a conversation can only be
	// created for a registered account.
	doc, err := r.userDoc(owner).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: user node %s", convdom.ErrFailedToFetch, owner)
		}
		return fmt.Errorf("%w: %v", convdom.ErrFailedToFetch, err)
	}

	raw, _ := doc.Data()["conversations"].([]any)
	list := make([]map[string]any, 0, len(raw)+1)
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			list = append(list, m)
		}
	}
	list = append(list, s.ToMap())

	if _, err := r.userDoc(owner).Set(ctx, map[string]any{"conversations": list}, gfs.MergeAll); err != nil {
		return fmt.Errorf("write conversations: %w", err)
	}
	return nil
}

func (r *DirectoryFS) List(ctx context.Context, owner string) ([]convdom.Summary, error) {
	if r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, convdom.ErrInvalidSummary
	}

	doc, err := r.userDoc(owner).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			// No node yet: an empty directory, not a failure.
			return []convdom.Summary{}, nil
		}
		return nil, fmt.Errorf("%w: %v", convdom.ErrFailedToFetch, err)
	}

	raw, ok := doc.Data()["conversations"].([]any)
	if !ok {
		// Node exists but has no conversations field yet.
		return []convdom.Summary{}, nil
	}

	out := make([]convdom.Summary, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		s, err := convdom.SummaryFromMap(m)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
