// internal/domain/conversation/entity.go
package conversation

import (
	"errors"
	"strings"
)

// ========================================
// Errors
// ========================================

var (
	ErrNotFound       = errors.New("conversation: not found")
	ErrConflict       = errors.New("conversation: already exists")
	ErrFailedToFetch  = errors.New("conversation: failed to fetch")
	ErrInvalidID      = errors.New("conversation: invalid id")
	ErrInvalidSummary = errors.New("conversation: invalid summary")
)

// IDPrefix is prepended to the first message's id to mint the conversation
// id. Unique as long as message ids are unique.
const IDPrefix = "conversation_"

// MintID builds the conversation id for a first message.
func MintID(firstMessageID string) string {
	return IDPrefix + firstMessageID
}

// ========================================
// Entities
// ========================================

// LatestMessage is the preview embedded in a Summary.
type LatestMessage struct {
	Date   string `json:"date"`
	Text   string `json:"message"`
	IsRead bool   `json:"is_read"`
}

// Summary is one entry of a participant's conversation directory.
// Two independent copies exist, one per participant, intentionally
// denormalized for fast list reads at the cost of dual writes. Both copies
// share the same ID; CounterpartKey in each copy points at the other
// participant.
type Summary struct {
	ID             string        `json:"id"`
	CounterpartKey string        `json:"other_user_email"`
	Name           string        `json:"name"`
	LatestMessage  LatestMessage `json:"latest_message"`
}

func (s Summary) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrInvalidID
	}
	if strings.TrimSpace(s.CounterpartKey) == "" {
		return ErrInvalidSummary
	}
	return nil
}
