// internal/application/usecase/session.go
package usecase

import (
	"errors"
	"strings"

	userdom "messenger/internal/domain/user"
)

// Session identifies the calling user for every usecase operation. It is
// built by the auth middleware from the verified token and passed
// explicitly; there is no ambient current-user state anywhere.
type Session struct {
	Email string
	Name  string
}

var ErrNoSession = errors.New("usecase: missing session")

// Key is the storage partition key for the session user.
func (s Session) Key() string {
	return userdom.SafeEmail(strings.TrimSpace(s.Email))
}

func (s Session) Valid() bool {
	return strings.TrimSpace(s.Email) != ""
}
