// internal/domain/message/entity.go
package message

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ========================================
// Kind
// ========================================

type Kind string

const (
	KindText           Kind = "text"
	KindAttributedText Kind = "attributedText"
	KindPhoto          Kind = "photo"
	KindVideo          Kind = "video"
	KindLocation       Kind = "location"
	KindEmoji          Kind = "emoji"
	KindAudio          Kind = "audio"
	KindContact        Kind = "contact"
	KindLinkPreview    Kind = "linkPreview"
	KindCustom         Kind = "custom"
)

func IsValidKind(k Kind) bool {
	switch k {
	case KindText, KindAttributedText, KindPhoto, KindVideo, KindLocation,
		KindEmoji, KindAudio, KindContact, KindLinkPreview, KindCustom:
		return true
	default:
		return false
	}
}

// ========================================
// Errors
// ========================================

var (
	ErrInvalidID      = errors.New("message: invalid id")
	ErrInvalidSender  = errors.New("message: invalid sender")
	ErrInvalidKind    = errors.New("message: invalid kind")
	ErrInvalidContent = errors.New("message: invalid content")
	ErrInvalidDate    = errors.New("message: invalid date")
	ErrInvalidURL     = errors.New("message: invalid url")
)

// ========================================
// Content (tagged payloads)
// ========================================

// Content is the typed message payload. One concrete type exists per Kind;
// the codec serializes each to the flat record's content string and back.
type Content interface {
	Kind() Kind
	validate() error
}

// TextContent carries text, attributedText and emoji bodies.
// 本文は文字列そのままで保存されます。
type TextContent struct {
	Text string
	Tag  Kind // KindText, KindAttributedText or KindEmoji
}

func (c TextContent) Kind() Kind {
	if c.Tag == KindAttributedText || c.Tag == KindEmoji {
		return c.Tag
	}
	return KindText
}

func (c TextContent) validate() error {
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidContent)
	}
	return nil
}

// MediaContent carries photo, video and audio attachments as a blob-store
// URL plus display dimensions.
type MediaContent struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Tag    Kind   `json:"-"` // KindPhoto, KindVideo or KindAudio
}

func (c MediaContent) Kind() Kind {
	if c.Tag == KindVideo || c.Tag == KindAudio {
		return c.Tag
	}
	return KindPhoto
}

func (c MediaContent) validate() error {
	if _, err := url.ParseRequestURI(strings.TrimSpace(c.URL)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: negative dimensions", ErrInvalidContent)
	}
	return nil
}

// LocationContent carries a shared map location.
type LocationContent struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (LocationContent) Kind() Kind { return KindLocation }

func (c LocationContent) validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude out of range", ErrInvalidContent)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude out of range", ErrInvalidContent)
	}
	return nil
}

// ContactContent carries a shared contact card.
type ContactContent struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (ContactContent) Kind() Kind { return KindContact }

func (c ContactContent) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: empty contact name", ErrInvalidContent)
	}
	return nil
}

// LinkPreviewContent carries a shared link with its resolved title.
type LinkPreviewContent struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

func (LinkPreviewContent) Kind() Kind { return KindLinkPreview }

func (c LinkPreviewContent) validate() error {
	if _, err := url.ParseRequestURI(strings.TrimSpace(c.URL)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return nil
}

// CustomContent is an opaque application-defined payload.
type CustomContent struct {
	Raw string
}

func (CustomContent) Kind() Kind { return KindCustom }

func (c CustomContent) validate() error {
	if c.Raw == "" {
		return fmt.Errorf("%w: empty custom payload", ErrInvalidContent)
	}
	return nil
}

// ========================================
// Entity
// ========================================

// Message is the in-memory representation of one chat message. Immutable
// after creation: there is no edit or delete path.
type Message struct {
	ID         string
	SenderKey  string // safeEmail of the sender
	SenderName string
	Content    Content
	SentAt     time.Time
	IsRead     bool
}

func (m Message) Kind() Kind {
	if m.Content == nil {
		return ""
	}
	return m.Content.Kind()
}

// New validates and builds a Message.
func New(id, senderKey, senderName string, content Content, sentAt time.Time) (Message, error) {
	m := Message{
		ID:         strings.TrimSpace(id),
		SenderKey:  strings.TrimSpace(senderKey),
		SenderName: strings.TrimSpace(senderName),
		Content:    content,
		SentAt:     sentAt,
	}
	if err := m.validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// NewText is the common case.
func NewText(id, senderKey, senderName, text string, sentAt time.Time) (Message, error) {
	return New(id, senderKey, senderName, TextContent{Text: text}, sentAt)
}

func (m Message) validate() error {
	if m.ID == "" {
		return ErrInvalidID
	}
	if m.SenderKey == "" {
		return ErrInvalidSender
	}
	if m.Content == nil || !IsValidKind(m.Content.Kind()) {
		return ErrInvalidKind
	}
	if err := m.Content.validate(); err != nil {
		return err
	}
	if m.SentAt.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// CreateMessageID mints a message id the way the client does:
// <counterpartKey>_<senderKey>_<formatted date>. Unique as long as the same
// pair does not send twice within the formatter's one-second resolution.
func CreateMessageID(counterpartKey, senderKey string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s", counterpartKey, senderKey, FormatDate(at))
}
