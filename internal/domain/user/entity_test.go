package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"alice@example.com", "alice-example-com"},
		{"first.last@sub.example.co.jp", "first-last-sub-example-co-jp"},
		{"no-at-sign", "no-at-sign"},
		{"", ""},
		// "." is replaced before "@"; both collapse to the same rune.
		{"a.b@c", "a-b-c"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SafeEmail(c.in), "input %q", c.in)
	}
}

func TestSafeEmailDeterministic(t *testing.T) {
	assert.Equal(t, SafeEmail("bob@example.com"), SafeEmail("bob@example.com"))
	// The mapping is not injective: distinct addresses may share a key.
	assert.Equal(t, SafeEmail("a.b@c.com"), SafeEmail("a@b.c.com"))
}

func TestNewChatUser(t *testing.T) {
	u, err := NewChatUser("  Alice ", "Smith", " alice@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.FirstName)
	assert.Equal(t, "Smith", u.LastName)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "alice-example-com", u.SafeEmail())
	assert.Equal(t, "Alice Smith", u.FullName())
	assert.Equal(t, "alice-example-com_profile_picture.png", u.ProfilePictureFileName())
}

func TestNewChatUserValidation(t *testing.T) {
	_, err := NewChatUser("Alice", "Smith", "not-an-email")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = NewChatUser("", "Smith", "alice@example.com")
	assert.ErrorIs(t, err, ErrInvalidFirstName)

	_, err = NewChatUser("Alice", "   ", "alice@example.com")
	assert.ErrorIs(t, err, ErrInvalidLastName)
}

func TestDirectoryEntryOf(t *testing.T) {
	u, err := NewChatUser("Alice", "Smith", "alice@example.com")
	require.NoError(t, err)

	e := DirectoryEntryOf(u)
	assert.Equal(t, "Alice Smith", e.Name)
	assert.Equal(t, "alice-example-com", e.Email)
}
