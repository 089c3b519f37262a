// internal/domain/user/entity.go
package user

import (
	"errors"
	"fmt"
	"strings"
)

// ========================================
// Errors (single source)
// ========================================

var (
	ErrInvalidEmail     = errors.New("user: invalid email")
	ErrInvalidFirstName = errors.New("user: invalid first_name")
	ErrInvalidLastName  = errors.New("user: invalid last_name")
	ErrNotFound         = errors.New("user: not found")
	ErrAlreadyExists    = errors.New("user: already exists")
	ErrFailedToFetch    = errors.New("user: failed to fetch")
)

// Policy
var MaxNameLength = 100

// ========================================
// Identity normalization
// ========================================

// SafeEmail converts a free-form email address into a storage-safe key.
// Every "." is replaced with "-", then every "@" with "-". Pure and
// deterministic: the same input always yields the same key. All per-user
// storage paths are partitioned by this key, so every component deriving a
// key from an email must go through here.
func SafeEmail(email string) string {
	safe := strings.ReplaceAll(email, ".", "-")
	safe = strings.ReplaceAll(safe, "@", "-")
	return safe
}

// ========================================
// Entity
// ========================================

// ChatUser is the account record stored at users/<safeEmail>.
type ChatUser struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// NewChatUser validates and builds a ChatUser.
func NewChatUser(firstName, lastName, email string) (ChatUser, error) {
	u := ChatUser{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     strings.TrimSpace(email),
	}
	if err := u.validate(); err != nil {
		return ChatUser{}, err
	}
	return u, nil
}

func (u ChatUser) validate() error {
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	if u.FirstName == "" || len([]rune(u.FirstName)) > MaxNameLength {
		return ErrInvalidFirstName
	}
	if u.LastName == "" || len([]rune(u.LastName)) > MaxNameLength {
		return ErrInvalidLastName
	}
	return nil
}

// SafeEmail returns the storage key for this user.
func (u ChatUser) SafeEmail() string {
	return SafeEmail(u.Email)
}

func (u ChatUser) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ProfilePictureFileName is the blob-store object name for the avatar.
func (u ChatUser) ProfilePictureFileName() string {
	return fmt.Sprintf("%s_profile_picture.png", u.SafeEmail())
}

// ========================================
// Search directory record
// ========================================

// DirectoryEntry is one element of the flat /users search list.
// email は safeEmail 済みの値を保持します。
type DirectoryEntry struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DirectoryEntryOf builds the search-list record for a user.
func DirectoryEntryOf(u ChatUser) DirectoryEntry {
	return DirectoryEntry{
		Name:  u.FullName(),
		Email: u.SafeEmail(),
	}
}
