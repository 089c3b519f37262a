package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger/internal/adapters/in/http/middleware"
	usecase "messenger/internal/application/usecase"
	convdom "messenger/internal/domain/conversation"
	msgdom "messenger/internal/domain/message"
)

// ========================================
// In-memory ports
// ========================================

type memDirectory struct {
	lists map[string][]convdom.Summary
}

func (d *memDirectory) Exists(_ context.Context, owner, counterpart string) (string, error) {
	for _, s := range d.lists[owner] {
		if s.CounterpartKey == counterpart {
			return s.ID, nil
		}
	}
	return "", convdom.ErrNotFound
}

func (d *memDirectory) Append(_ context.Context, owner string, s convdom.Summary) error {
	d.lists[owner] = append(d.lists[owner], s)
	return nil
}

func (d *memDirectory) List(_ context.Context, owner string) ([]convdom.Summary, error) {
	return d.lists[owner], nil
}

type memLog struct {
	logs map[string][]msgdom.StoredMessage
}

func (l *memLog) Create(_ context.Context, id string, first msgdom.StoredMessage) error {
	if _, ok := l.logs[id]; ok {
		return convdom.ErrConflict
	}
	l.logs[id] = []msgdom.StoredMessage{first}
	return nil
}

func (l *memLog) Append(_ context.Context, id string, m msgdom.StoredMessage) error {
	l.logs[id] = append(l.logs[id], m)
	return nil
}

func (l *memLog) Messages(_ context.Context, id string) ([]msgdom.Message, error) {
	records, ok := l.logs[id]
	if !ok {
		return nil, convdom.ErrNotFound
	}
	return msgdom.DecodeAll(records), nil
}

func (l *memLog) Subscribe(_ context.Context, id string) (<-chan []msgdom.Message, error) {
	ch := make(chan []msgdom.Message, 1)
	ch <- msgdom.DecodeAll(l.logs[id])
	close(ch)
	return ch, nil
}

func newHandlerFixture() http.Handler {
	dir := &memDirectory{lists: map[string][]convdom.Summary{}}
	lg := &memLog{logs: map[string][]msgdom.StoredMessage{}}
	uc := usecase.NewSyncUsecase(dir, lg).
		WithNow(func() time.Time { return time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC) })
	return NewConversationHandler(uc)
}

func authedRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	sess := usecase.Session{Email: "alice@example.com", Name: "Alice Smith"}
	return r.WithContext(middleware.ContextWithSession(r.Context(), sess))
}

// ========================================
// Tests
// ========================================

func TestConversationHandlerRequiresSession(t *testing.T) {
	h := newHandlerFixture()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendThenListAndExists(t *testing.T) {
	h := newHandlerFixture()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodPost, "/conversations/messages",
		`{"counterpart_email":"bob@example.com","counterpart_name":"Bob Jones","type":"text","content":"hi bob"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var sent struct {
		ConversationID string `json:"conversation_id"`
		MessageID      string `json:"message_id"`
		Created        bool   `json:"created"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sent))
	assert.True(t, sent.Created)
	assert.True(t, strings.HasPrefix(sent.ConversationID, "conversation_"))

	// Directory list
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet, "/conversations", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var list []convdom.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, sent.ConversationID, list[0].ID)
	assert.Equal(t, "bob-example-com", list[0].CounterpartKey)

	// Exists lookup
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet, "/conversations/exists?counterpart=bob%40example.com", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, sent.ConversationID, got["id"])
}

func TestExistsNotFoundMapsTo404(t *testing.T) {
	h := newHandlerFixture()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet, "/conversations/exists?counterpart=ghost%40example.com", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendRejectsUnknownKind(t *testing.T) {
	h := newHandlerFixture()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodPost, "/conversations/messages",
		`{"counterpart_email":"bob@example.com","type":"hologram","content":"x"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMessagesRoute(t *testing.T) {
	h := newHandlerFixture()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodPost, "/conversations/messages",
		`{"counterpart_email":"bob@example.com","counterpart_name":"Bob Jones","type":"text","content":"hi bob"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var sent struct {
		ConversationID string `json:"conversation_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sent))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet, "/conversations/"+url.PathEscape(sent.ConversationID)+"/messages", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var views []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "hi bob", views[0]["content"])
	assert.Equal(t, "alice-example-com", views[0]["sender_email"])
}

func TestStreamDeliversSnapshotAsSSE(t *testing.T) {
	h := newHandlerFixture()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodPost, "/conversations/messages",
		`{"counterpart_email":"bob@example.com","counterpart_name":"Bob Jones","type":"text","content":"hi bob"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var sent struct {
		ConversationID string `json:"conversation_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sent))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet, "/conversations/"+url.PathEscape(sent.ConversationID)+"/stream", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	require.True(t, strings.HasPrefix(body, "data: "))
	payload := strings.TrimSpace(strings.TrimPrefix(body, "data: "))

	var views []map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "hi bob", views[0]["content"])
}
