// internal/domain/message/codec.go
package message

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout renders a medium date with a long time, fixed to the en_US
// shape the client displays. The numeric zone keeps the parse exact: zone
// abbreviations do not survive a round trip through time.Parse.
const DateLayout = "Jan 2, 2006 at 3:04:05 PM -0700"

// FormatDate truncates to second precision (the layout carries no
// sub-second digits).
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate is the exact inverse of FormatDate.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return t, nil
}

// ========================================
// Flat persisted record
// ========================================

// StoredMessage is the flat persisted shape of one message, one element of
// the conversation log list.
type StoredMessage struct {
	ID          string `json:"id" firestore:"id"`
	Type        string `json:"type" firestore:"type"`
	Content     string `json:"content" firestore:"content"`
	Date        string `json:"date" firestore:"date"`
	SenderEmail string `json:"sender_email" firestore:"sender_email"`
	Name        string `json:"name" firestore:"name"`
	IsRead      bool   `json:"is_read" firestore:"is_read"`
}

// ========================================
// Encode / Decode
// ========================================

// Encode serializes a Message into its flat record. Text-like kinds store
// the literal string; media, location, contact and linkPreview kinds store
// a JSON payload; custom stores the raw payload untouched.
func Encode(m Message) (StoredMessage, error) {
	if err := m.validate(); err != nil {
		return StoredMessage{}, err
	}

	content, err := encodeContent(m.Content)
	if err != nil {
		return StoredMessage{}, err
	}

	return StoredMessage{
		ID:          m.ID,
		Type:        string(m.Kind()),
		Content:     content,
		Date:        FormatDate(m.SentAt),
		SenderEmail: m.SenderKey,
		Name:        m.SenderName,
		IsRead:      m.IsRead,
	}, nil
}

func encodeContent(c Content) (string, error) {
	switch v := c.(type) {
	case TextContent:
		return v.Text, nil
	case CustomContent:
		return v.Raw, nil
	case MediaContent, LocationContent, ContactContent, LinkPreviewContent:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		return string(b), nil
	default:
		return "", ErrInvalidKind
	}
}

// Decode reconstructs a Message from its flat record. Fails when a required
// field is absent, the kind is unknown, the date does not parse, or a JSON
// payload is malformed. Callers reading a whole log drop the failing record
// and keep the rest.
func Decode(sm StoredMessage) (Message, error) {
	id := strings.TrimSpace(sm.ID)
	if id == "" {
		return Message{}, ErrInvalidID
	}
	sender := strings.TrimSpace(sm.SenderEmail)
	if sender == "" {
		return Message{}, ErrInvalidSender
	}

	kind := Kind(strings.TrimSpace(sm.Type))
	if !IsValidKind(kind) {
		return Message{}, fmt.Errorf("%w: %q", ErrInvalidKind, sm.Type)
	}

	sentAt, err := ParseDate(sm.Date)
	if err != nil {
		return Message{}, err
	}

	content, err := ParseContent(kind, sm.Content)
	if err != nil {
		return Message{}, err
	}

	return Message{
		ID:         id,
		SenderKey:  sender,
		SenderName: strings.TrimSpace(sm.Name),
		Content:    content,
		SentAt:     sentAt,
		IsRead:     sm.IsRead,
	}, nil
}

// ParseContent reconstructs the typed payload for a kind from its stored
// content string.
func ParseContent(kind Kind, raw string) (Content, error) {
	switch kind {
	case KindText, KindAttributedText, KindEmoji:
		if raw == "" {
			return nil, fmt.Errorf("%w: empty text", ErrInvalidContent)
		}
		return TextContent{Text: raw, Tag: kind}, nil
	case KindPhoto, KindVideo, KindAudio:
		var c MediaContent
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		c.Tag = kind
		return c, nil
	case KindLocation:
		var c LocationContent
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		return c, nil
	case KindContact:
		var c ContactContent
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		return c, nil
	case KindLinkPreview:
		var c LinkPreviewContent
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		return c, nil
	case KindCustom:
		if raw == "" {
			return nil, fmt.Errorf("%w: empty custom payload", ErrInvalidContent)
		}
		return CustomContent{Raw: raw}, nil
	default:
		return nil, ErrInvalidKind
	}
}

// DecodeAll decodes a whole log, silently dropping malformed records
// (partial-success policy for reads and watches).
func DecodeAll(records []StoredMessage) []Message {
	out := make([]Message, 0, len(records))
	for _, sm := range records {
		m, err := Decode(sm)
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

// PreviewText is the latest_message text written into conversation
// summaries. Only text-like kinds carry a preview; other kinds render
// empty, matching the client.
func (m Message) PreviewText() string {
	if c, ok := m.Content.(TextContent); ok {
		return c.Text
	}
	return ""
}

// ========================================
// map[string]any helpers for document-store adapters
// ========================================

// ToMap flattens the record into the subtree shape written to the store.
func (sm StoredMessage) ToMap() map[string]any {
	return map[string]any{
		"id":           sm.ID,
		"type":         sm.Type,
		"content":      sm.Content,
		"date":         sm.Date,
		"sender_email": sm.SenderEmail,
		"name":         sm.Name,
		"is_read":      sm.IsRead,
	}
}

// StoredMessageFromMap rebuilds a record from a stored subtree. Missing
// required fields fail the record (the caller drops it).
func StoredMessageFromMap(data map[string]any) (StoredMessage, error) {
	getStr := func(key string) string {
		if v, ok := data[key].(string); ok {
			return v
		}
		return ""
	}
	getBool := func(key string) bool {
		if v, ok := data[key].(bool); ok {
			return v
		}
		return false
	}

	sm := StoredMessage{
		ID:          getStr("id"),
		Type:        getStr("type"),
		Content:     getStr("content"),
		Date:        getStr("date"),
		SenderEmail: getStr("sender_email"),
		Name:        getStr("name"),
		IsRead:      getBool("is_read"),
	}
	if strings.TrimSpace(sm.ID) == "" {
		return StoredMessage{}, ErrInvalidID
	}
	if strings.TrimSpace(sm.Type) == "" {
		return StoredMessage{}, ErrInvalidKind
	}
	if strings.TrimSpace(sm.Date) == "" {
		return StoredMessage{}, ErrInvalidDate
	}
	if strings.TrimSpace(sm.SenderEmail) == "" {
		return StoredMessage{}, ErrInvalidSender
	}
	return sm, nil
}
