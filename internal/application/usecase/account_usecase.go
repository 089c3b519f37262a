// internal/application/usecase/account_usecase.go
package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	userdom "messenger/internal/domain/user"
)

// Mailer is the outbound email port (SendGrid in production).
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// AccountUsecase handles registration and the user search directory.
type AccountUsecase struct {
	repo userdom.Repository

	// mailer is optional; registration succeeds without it.
	mailer   Mailer
	mailFrom string
}

func NewAccountUsecase(repo userdom.Repository) *AccountUsecase {
	return &AccountUsecase{repo: repo}
}

func (u *AccountUsecase) WithMailer(m Mailer, from string) *AccountUsecase {
	u.mailer = m
	u.mailFrom = strings.TrimSpace(from)
	return u
}

// =======================
// Register
// =======================

type RegisterInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Register validates the account, writes the per-user node plus the flat
// search list entry, and sends a best-effort welcome mail. A mail failure
// is logged, never surfaced: the account already exists at that point.
func (u *AccountUsecase) Register(ctx context.Context, in RegisterInput) (userdom.ChatUser, error) {
	cu, err := userdom.NewChatUser(in.FirstName, in.LastName, in.Email)
	if err != nil {
		return userdom.ChatUser{}, err
	}

	exists, err := u.repo.Exists(ctx, cu.Email)
	if err != nil {
		return userdom.ChatUser{}, fmt.Errorf("account lookup: %w", err)
	}
	if exists {
		return userdom.ChatUser{}, userdom.ErrAlreadyExists
	}

	if err := u.repo.Insert(ctx, cu); err != nil {
		return userdom.ChatUser{}, fmt.Errorf("insert account: %w", err)
	}

	if u.mailer != nil && u.mailFrom != "" {
		subject := "Welcome to Messenger"
		body := fmt.Sprintf("Hi %s,\n\nYour account is ready. Start a conversation from the search tab.", cu.FirstName)
		if err := u.mailer.Send(ctx, u.mailFrom, cu.Email, subject, body); err != nil {
			log.Printf("[account] welcome mail to %s failed: %v", cu.Email, err)
		}
	}

	return cu, nil
}

// =======================
// Search
// =======================

// Search returns directory entries whose name has the query as a
// case-insensitive prefix, excluding the caller.
func (u *AccountUsecase) Search(ctx context.Context, sess Session, query string) ([]userdom.DirectoryEntry, error) {
	if !sess.Valid() {
		return nil, ErrNoSession
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []userdom.DirectoryEntry{}, nil
	}

	all, err := u.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("search list: %w", err)
	}

	self := sess.Key()
	out := make([]userdom.DirectoryEntry, 0, len(all))
	for _, e := range all {
		if e.Email == self {
			continue
		}
		if strings.HasPrefix(strings.ToLower(e.Name), query) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Get loads one account by its storage key.
func (u *AccountUsecase) Get(ctx context.Context, safeEmail string) (userdom.ChatUser, error) {
	safeEmail = strings.TrimSpace(safeEmail)
	if safeEmail == "" {
		return userdom.ChatUser{}, userdom.ErrInvalidEmail
	}
	return u.repo.Get(ctx, safeEmail)
}
