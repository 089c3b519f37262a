package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	convdom "messenger/internal/domain/conversation"
	msgdom "messenger/internal/domain/message"
)

// ========================================
// In-memory ports
// ========================================

type fakeDirectory struct {
	lists map[string][]convdom.Summary

	appendErrFor map[string]error // owner key -> forced failure
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		lists:        map[string][]convdom.Summary{},
		appendErrFor: map[string]error{},
	}
}

func (d *fakeDirectory) Exists(_ context.Context, owner, counterpart string) (string, error) {
	for _, s := range d.lists[owner] {
		if s.CounterpartKey == counterpart {
			return s.ID, nil
		}
	}
	return "", convdom.ErrNotFound
}

func (d *fakeDirectory) Append(_ context.Context, owner string, s convdom.Summary) error {
	if err := d.appendErrFor[owner]; err != nil {
		return err
	}
	d.lists[owner] = append(d.lists[owner], s)
	return nil
}

func (d *fakeDirectory) List(_ context.Context, owner string) ([]convdom.Summary, error) {
	return d.lists[owner], nil
}

type fakeLog struct {
	logs map[string][]msgdom.StoredMessage

	createErr error
	appendErr error
}

func newFakeLog() *fakeLog {
	return &fakeLog{logs: map[string][]msgdom.StoredMessage{}}
}

func (l *fakeLog) Create(_ context.Context, id string, first msgdom.StoredMessage) error {
	if l.createErr != nil {
		return l.createErr
	}
	if _, ok := l.logs[id]; ok {
		return convdom.ErrConflict
	}
	l.logs[id] = []msgdom.StoredMessage{first}
	return nil
}

func (l *fakeLog) Append(_ context.Context, id string, m msgdom.StoredMessage) error {
	if l.appendErr != nil {
		return l.appendErr
	}
	l.logs[id] = append(l.logs[id], m)
	return nil
}

func (l *fakeLog) Messages(_ context.Context, id string) ([]msgdom.Message, error) {
	records, ok := l.logs[id]
	if !ok {
		return nil, convdom.ErrNotFound
	}
	return msgdom.DecodeAll(records), nil
}

func (l *fakeLog) Subscribe(ctx context.Context, id string) (<-chan []msgdom.Message, error) {
	ch := make(chan []msgdom.Message, 1)
	ch <- msgdom.DecodeAll(l.logs[id])
	close(ch)
	return ch, nil
}

// ========================================
// Fixtures
// ========================================

var fixedNow = time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC)

func newSyncFixture() (*SyncUsecase, *fakeDirectory, *fakeLog) {
	dir := newFakeDirectory()
	lg := newFakeLog()
	uc := NewSyncUsecase(dir, lg).WithNow(func() time.Time { return fixedNow })
	return uc, dir, lg
}

var alice = Session{Email: "alice@example.com", Name: "Alice Smith"}

func sendText(t *testing.T, uc *SyncUsecase, sess Session, toEmail, toName, text string) SendOutput {
	t.Helper()
	out, err := uc.SendMessage(context.Background(), sess, SendInput{
		CounterpartEmail: toEmail,
		CounterpartName:  toName,
		Content:          msgdom.TextContent{Text: text},
	})
	require.NoError(t, err)
	return out
}

// ========================================
// Send state machine
// ========================================

func TestSendMessageCreatesConversation(t *testing.T) {
	uc, dir, lg := newSyncFixture()

	out := sendText(t, uc, alice, "bob@example.com", "Bob Jones", "hi bob")
	require.True(t, out.Created)

	wantMsgID := "bob-example-com_alice-example-com_" + msgdom.FormatDate(fixedNow)
	assert.Equal(t, wantMsgID, out.Message.ID)
	assert.Equal(t, "conversation_"+wantMsgID, out.ConversationID)

	// Both directory copies exist and point at each other.
	aliceList := dir.lists["alice-example-com"]
	require.Len(t, aliceList, 1)
	assert.Equal(t, out.ConversationID, aliceList[0].ID)
	assert.Equal(t, "bob-example-com", aliceList[0].CounterpartKey)
	assert.Equal(t, "Bob Jones", aliceList[0].Name)
	assert.Equal(t, "hi bob", aliceList[0].LatestMessage.Text)
	assert.False(t, aliceList[0].LatestMessage.IsRead)

	bobList := dir.lists["bob-example-com"]
	require.Len(t, bobList, 1)
	assert.Equal(t, out.ConversationID, bobList[0].ID)
	assert.Equal(t, "alice-example-com", bobList[0].CounterpartKey)
	assert.Equal(t, "Alice Smith", bobList[0].Name)

	// The shared log holds exactly the first message.
	require.Len(t, lg.logs[out.ConversationID], 1)
	assert.Equal(t, wantMsgID, lg.logs[out.ConversationID][0].ID)
}

func TestSendMessageAppendsToExistingConversation(t *testing.T) {
	uc, dir, lg := newSyncFixture()

	first := sendText(t, uc, alice, "bob@example.com", "Bob Jones", "hi bob")

	second, err := uc.SendMessage(context.Background(), alice, SendInput{
		CounterpartEmail: "bob@example.com",
		CounterpartName:  "Bob Jones",
		MessageID:        "m-explicit",
		Content:          msgdom.TextContent{Text: "still there?"},
	})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	// Log grew in order; directories did not gain a second entry.
	records := lg.logs[first.ConversationID]
	require.Len(t, records, 2)
	assert.Equal(t, "m-explicit", records[1].ID)
	assert.Len(t, dir.lists["alice-example-com"], 1)
	assert.Len(t, dir.lists["bob-example-com"], 1)

	// Appends leave the creation-time preview untouched.
	assert.Equal(t, "hi bob", dir.lists["alice-example-com"][0].LatestMessage.Text)
}

func TestSendMessageNormalizesCounterpartEmail(t *testing.T) {
	uc, _, _ := newSyncFixture()

	out := sendText(t, uc, alice, "bob@example.com", "Bob Jones", "hi")

	// A raw and a pre-normalized address resolve to the same conversation.
	id, err := uc.Exists(context.Background(), alice, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, out.ConversationID, id)

	id, err = uc.Exists(context.Background(), alice, "bob-example-com")
	require.NoError(t, err)
	assert.Equal(t, out.ConversationID, id)
}

func TestSendMessageRequiresSession(t *testing.T) {
	uc, _, _ := newSyncFixture()

	_, err := uc.SendMessage(context.Background(), Session{}, SendInput{
		CounterpartEmail: "bob@example.com",
		Content:          msgdom.TextContent{Text: "hi"},
	})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSendMessageCounterpartWriteFailureAbortsWithoutRepair(t *testing.T) {
	uc, dir, lg := newSyncFixture()
	boom := errors.New("store down")
	dir.appendErrFor["bob-example-com"] = boom

	_, err := uc.SendMessage(context.Background(), alice, SendInput{
		CounterpartEmail: "bob@example.com",
		CounterpartName:  "Bob Jones",
		Content:          msgdom.TextContent{Text: "hi"},
	})
	require.ErrorIs(t, err, boom)

	// Owner's copy stays (no rollback); no log was created.
	assert.Len(t, dir.lists["alice-example-com"], 1)
	assert.Empty(t, dir.lists["bob-example-com"])
	assert.Empty(t, lg.logs)
}

func TestSendMessageLogConflictSurfaces(t *testing.T) {
	uc, _, lg := newSyncFixture()
	lg.createErr = convdom.ErrConflict

	_, err := uc.SendMessage(context.Background(), alice, SendInput{
		CounterpartEmail: "bob@example.com",
		CounterpartName:  "Bob Jones",
		Content:          msgdom.TextContent{Text: "hi"},
	})
	assert.ErrorIs(t, err, convdom.ErrConflict)
}

// ========================================
// Reads
// ========================================

func TestListConversations(t *testing.T) {
	uc, _, _ := newSyncFixture()

	sendText(t, uc, alice, "bob@example.com", "Bob Jones", "hi bob")
	sendText(t, uc, alice, "carol@example.com", "Carol King", "hi carol")

	list, err := uc.ListConversations(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bob-example-com", list[0].CounterpartKey)
	assert.Equal(t, "carol-example-com", list[1].CounterpartKey)
}

func TestExistsNotFound(t *testing.T) {
	uc, _, _ := newSyncFixture()

	_, err := uc.Exists(context.Background(), alice, "bob@example.com")
	assert.ErrorIs(t, err, convdom.ErrNotFound)
}

func TestMessagesDecodesLog(t *testing.T) {
	uc, _, _ := newSyncFixture()

	out := sendText(t, uc, alice, "bob@example.com", "Bob Jones", "hi bob")

	msgs, err := uc.Messages(context.Background(), alice, out.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi bob", msgs[0].PreviewText())
	assert.True(t, msgs[0].SentAt.Equal(fixedNow))
}

func TestMessagesRejectsEmptyID(t *testing.T) {
	uc, _, _ := newSyncFixture()

	_, err := uc.Messages(context.Background(), alice, "  ")
	assert.ErrorIs(t, err, convdom.ErrInvalidID)
}

func TestWatchDeliversSnapshot(t *testing.T) {
	uc, _, _ := newSyncFixture()

	out := sendText(t, uc, alice, "bob@example.com", "Bob Jones", "hi bob")

	ch, err := uc.Watch(context.Background(), alice, out.ConversationID)
	require.NoError(t, err)

	snap, ok := <-ch
	require.True(t, ok)
	require.Len(t, snap, 1)
	assert.Equal(t, out.Message.ID, snap[0].ID)
}
