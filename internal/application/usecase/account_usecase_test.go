package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userdom "messenger/internal/domain/user"
)

type fakeUserRepo struct {
	users map[string]userdom.ChatUser // keyed by safeEmail

	existsErr error
	insertErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]userdom.ChatUser{}}
}

func (r *fakeUserRepo) Exists(_ context.Context, email string) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}
	_, ok := r.users[userdom.SafeEmail(email)]
	return ok, nil
}

func (r *fakeUserRepo) Insert(_ context.Context, u userdom.ChatUser) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.users[u.SafeEmail()] = u
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, safeEmail string) (userdom.ChatUser, error) {
	u, ok := r.users[safeEmail]
	if !ok {
		return userdom.ChatUser{}, userdom.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) ListAll(_ context.Context) ([]userdom.DirectoryEntry, error) {
	out := make([]userdom.DirectoryEntry, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, userdom.DirectoryEntryOf(u))
	}
	return out, nil
}

type sentMail struct {
	from, to, subject string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, from, to, subject, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{from: from, to: to, subject: subject})
	return nil
}

func mustRegister(t *testing.T, uc *AccountUsecase, first, last, email string) userdom.ChatUser {
	t.Helper()
	u, err := uc.Register(context.Background(), RegisterInput{FirstName: first, LastName: last, Email: email})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	uc := NewAccountUsecase(repo).WithMailer(mailer, "noreply@messenger.app")

	u := mustRegister(t, uc, "Alice", "Smith", "alice@example.com")
	assert.Equal(t, "alice-example-com", u.SafeEmail())

	stored, err := repo.Get(context.Background(), "alice-example-com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.FirstName)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "noreply@messenger.app", mailer.sent[0].from)
	assert.Equal(t, "alice@example.com", mailer.sent[0].to)
}

func TestRegisterDuplicate(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewAccountUsecase(repo)

	mustRegister(t, uc, "Alice", "Smith", "alice@example.com")
	_, err := uc.Register(context.Background(), RegisterInput{
		FirstName: "Alice", LastName: "Smith", Email: "alice@example.com",
	})
	assert.ErrorIs(t, err, userdom.ErrAlreadyExists)
}

func TestRegisterInvalidInput(t *testing.T) {
	uc := NewAccountUsecase(newFakeUserRepo())

	_, err := uc.Register(context.Background(), RegisterInput{FirstName: "Alice", LastName: "Smith", Email: "nope"})
	assert.ErrorIs(t, err, userdom.ErrInvalidEmail)
}

func TestRegisterMailFailureIsNotFatal(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{err: errors.New("sendgrid down")}
	uc := NewAccountUsecase(repo).WithMailer(mailer, "noreply@messenger.app")

	u := mustRegister(t, uc, "Alice", "Smith", "alice@example.com")
	// Account exists even though the welcome mail failed.
	_, err := repo.Get(context.Background(), u.SafeEmail())
	assert.NoError(t, err)
}

func TestSearchPrefixMatchExcludesCaller(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewAccountUsecase(repo)

	mustRegister(t, uc, "Alice", "Smith", "alice@example.com")
	mustRegister(t, uc, "Alicia", "Keys", "alicia@example.com")
	mustRegister(t, uc, "Bob", "Jones", "bob@example.com")

	sess := Session{Email: "alice@example.com", Name: "Alice Smith"}

	got, err := uc.Search(context.Background(), sess, "ali")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alicia Keys", got[0].Name)

	// Case-insensitive, prefix only.
	got, err = uc.Search(context.Background(), sess, "BOB")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bob-example-com", got[0].Email)

	got, err = uc.Search(context.Background(), sess, "ones")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchEmptyQuery(t *testing.T) {
	uc := NewAccountUsecase(newFakeUserRepo())
	sess := Session{Email: "alice@example.com"}

	got, err := uc.Search(context.Background(), sess, "   ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchRequiresSession(t *testing.T) {
	uc := NewAccountUsecase(newFakeUserRepo())

	_, err := uc.Search(context.Background(), Session{}, "ali")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestGet(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewAccountUsecase(repo)
	mustRegister(t, uc, "Alice", "Smith", "alice@example.com")

	u, err := uc.Get(context.Background(), "alice-example-com")
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", u.FullName())

	_, err = uc.Get(context.Background(), "ghost-example-com")
	assert.ErrorIs(t, err, userdom.ErrNotFound)

	_, err = uc.Get(context.Background(), "")
	assert.ErrorIs(t, err, userdom.ErrInvalidEmail)
}
