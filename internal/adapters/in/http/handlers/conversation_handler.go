// internal/adapters/in/http/handlers/conversation_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"messenger/internal/adapters/in/http/middleware"
	usecase "messenger/internal/application/usecase"
	convdom "messenger/internal/domain/conversation"
	msgdom "messenger/internal/domain/message"
)

// ConversationHandler covers the conversation directory, the message log
// and the live message stream.
//
//	GET  /conversations                      -> directory list
//	GET  /conversations/exists?counterpart=  -> conversation id lookup
//	POST /conversations/messages             -> send (create or append)
//	GET  /conversations/{id}/messages        -> one-shot log read
//	GET  /conversations/{id}/stream          -> SSE full-snapshot stream
type ConversationHandler struct {
	uc *usecase.SyncUsecase
}

func NewConversationHandler(uc *usecase.SyncUsecase) http.Handler {
	return &ConversationHandler{uc: uc}
}

func (h *ConversationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/conversations")
	switch {
	case r.Method == http.MethodGet && (path == "" || path == "/"):
		h.list(w, r, sess)
	case r.Method == http.MethodGet && path == "/exists":
		h.exists(w, r, sess)
	case r.Method == http.MethodPost && path == "/messages":
		h.send(w, r, sess)
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/messages"):
		id := strings.Trim(strings.TrimSuffix(path, "/messages"), "/")
		h.messages(w, r, sess, id)
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/stream"):
		id := strings.Trim(strings.TrimSuffix(path, "/stream"), "/")
		h.stream(w, r, sess, id)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not_found"})
	}
}

// GET /conversations
func (h *ConversationHandler) list(w http.ResponseWriter, r *http.Request, sess usecase.Session) {
	w.Header().Set("Content-Type", "application/json")
	summaries, err := h.uc.ListConversations(r.Context(), sess)
	if err != nil {
		writeConvErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(summaries)
}

// GET /conversations/exists?counterpart=<email or key>
func (h *ConversationHandler) exists(w http.ResponseWriter, r *http.Request, sess usecase.Session) {
	w.Header().Set("Content-Type", "application/json")
	id, err := h.uc.Exists(r.Context(), sess, r.URL.Query().Get("counterpart"))
	if err != nil {
		writeConvErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
}

type sendRequest struct {
	CounterpartEmail string `json:"counterpart_email"`
	CounterpartName  string `json:"counterpart_name"`
	MessageID        string `json:"message_id,omitempty"`
	Type             string `json:"type"`
	Content          string `json:"content"`
}

type sendResponse struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	Created        bool   `json:"created"`
}

// POST /conversations/messages
func (h *ConversationHandler) send(w http.ResponseWriter, r *http.Request, sess usecase.Session) {
	w.Header().Set("Content-Type", "application/json")

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid body"})
		return
	}

	kind := msgdom.Kind(strings.TrimSpace(req.Type))
	if kind == "" {
		kind = msgdom.KindText
	}
	content, err := msgdom.ParseContent(kind, req.Content)
	if err != nil {
		writeConvErr(w, err)
		return
	}

	out, err := h.uc.SendMessage(r.Context(), sess, usecase.SendInput{
		CounterpartEmail: req.CounterpartEmail,
		CounterpartName:  req.CounterpartName,
		MessageID:        req.MessageID,
		Content:          content,
	})
	if err != nil {
		writeConvErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(sendResponse{
		ConversationID: out.ConversationID,
		MessageID:      out.Message.ID,
		Created:        out.Created,
	})
}

type messageView struct {
	ID     string `json:"id"`
	Sender string `json:"sender_email"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Text   string `json:"content"`
	Date   string `json:"date"`
	IsRead bool   `json:"is_read"`
}

func viewOf(m msgdom.Message) messageView {
	sm, err := msgdom.Encode(m)
	if err != nil {
		return messageView{ID: m.ID}
	}
	return messageView{
		ID:     sm.ID,
		Sender: sm.SenderEmail,
		Name:   sm.Name,
		Type:   sm.Type,
		Text:   sm.Content,
		Date:   sm.Date,
		IsRead: sm.IsRead,
	}
}

// GET /conversations/{id}/messages
func (h *ConversationHandler) messages(w http.ResponseWriter, r *http.Request, sess usecase.Session, id string) {
	w.Header().Set("Content-Type", "application/json")
	msgs, err := h.uc.Messages(r.Context(), sess, id)
	if err != nil {
		writeConvErr(w, err)
		return
	}
	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, viewOf(m))
	}
	_ = json.NewEncoder(w).Encode(views)
}

// GET /conversations/{id}/stream
//
// Server-sent events; each event carries the full decoded log. The watch
// is torn down when the client disconnects (request ctx cancels the
// underlying subscription).
func (h *ConversationHandler) stream(w http.ResponseWriter, r *http.Request, sess usecase.Session, id string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, err := h.uc.Watch(r.Context(), sess, id)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		writeConvErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for msgs := range ch {
		views := make([]messageView, 0, len(msgs))
		for _, m := range msgs {
			views = append(views, viewOf(m))
		}
		payload, err := json.Marshal(views)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}

func writeConvErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, convdom.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, convdom.ErrConflict):
		code = http.StatusConflict
	case errors.Is(err, convdom.ErrInvalidID),
		errors.Is(err, convdom.ErrInvalidSummary),
		errors.Is(err, msgdom.ErrInvalidKind),
		errors.Is(err, msgdom.ErrInvalidContent),
		errors.Is(err, msgdom.ErrInvalidDate):
		code = http.StatusBadRequest
	case errors.Is(err, usecase.ErrNoSession):
		code = http.StatusUnauthorized
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
