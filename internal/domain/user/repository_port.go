// internal/domain/user/repository_port.go
package user

import (
	"context"
)

// Repository は ChatUser の永続化ポート（契約）です。
// 実装はデータストア技術に依存して構いませんが、ドメイン層からは本インターフェースのみを参照します。
type Repository interface {
	// Exists reports whether an account record already exists for the email.
	Exists(ctx context.Context, email string) (bool, error)

	// Insert writes the per-user node and appends {name, email} to the flat
	// /users search list (whole-list read-modify-write; the list is created
	// on first insert).
	Insert(ctx context.Context, u ChatUser) error

	// Get loads the account record stored under safeEmail.
	// Returns ErrNotFound when no record exists.
	Get(ctx context.Context, safeEmail string) (ChatUser, error)

	// ListAll returns the flat /users search list. An absent list yields an
	// empty slice and nil error; ErrFailedToFetch only on a hard read error.
	ListAll(ctx context.Context) ([]DirectoryEntry, error)
}
