// internal/application/usecase/sync_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	convdom "messenger/internal/domain/conversation"
	msgdom "messenger/internal/domain/message"
	userdom "messenger/internal/domain/user"
)

// SyncUsecase orchestrates directory and log writes so that both
// participants' views of a conversation stay consistent. Each send is a
// single forward pass: look up the directory, create or append, no retries
// and no compensating rollback (a failed counterpart write after a
// successful owner write leaves an asymmetric conversation; see Messages
// of the Directory port for the read side).
type SyncUsecase struct {
	dir convdom.Directory
	log convdom.Log

	now func() time.Time
}

func NewSyncUsecase(dir convdom.Directory, log convdom.Log) *SyncUsecase {
	return &SyncUsecase{
		dir: dir,
		log: log,
		now: time.Now,
	}
}

func (u *SyncUsecase) WithNow(now func() time.Time) *SyncUsecase {
	u.now = now
	return u
}

// =======================
// Send
// =======================

type SendInput struct {
	// CounterpartEmail may be raw or already normalized; it is normalized
	// here before any lookup or write.
	CounterpartEmail string
	CounterpartName  string

	// MessageID is minted from the participant keys and timestamp when
	// empty (the client convention).
	MessageID string
	Content   msgdom.Content
}

type SendOutput struct {
	ConversationID string
	Message        msgdom.Message
	Created        bool // true when this send created the conversation
}

// SendMessage runs the send state machine: exists -> append, otherwise
// create both directory copies and the shared log.
func (u *SyncUsecase) SendMessage(ctx context.Context, sess Session, in SendInput) (SendOutput, error) {
	if !sess.Valid() {
		return SendOutput{}, ErrNoSession
	}

	owner := sess.Key()
	counterpart := userdom.SafeEmail(strings.TrimSpace(in.CounterpartEmail))
	if counterpart == "" {
		return SendOutput{}, convdom.ErrInvalidSummary
	}

	now := u.now()

	id := strings.TrimSpace(in.MessageID)
	if id == "" {
		id = msgdom.CreateMessageID(counterpart, owner, now)
	}

	m, err := msgdom.New(id, owner, sess.Name, in.Content, now)
	if err != nil {
		return SendOutput{}, err
	}
	sm, err := msgdom.Encode(m)
	if err != nil {
		return SendOutput{}, err
	}

	convID, err := u.dir.Exists(ctx, owner, counterpart)
	switch {
	case err == nil:
		// Existing conversation: append to the shared log only. Neither
		// participant's latest_message preview is refreshed here; the
		// preview is written at creation time only. (Observed client
		// behavior, kept pending product clarification.)
		if err := u.log.Append(ctx, convID, sm); err != nil {
			return SendOutput{}, fmt.Errorf("append message: %w", err)
		}
		return SendOutput{ConversationID: convID, Message: m}, nil

	case errors.Is(err, convdom.ErrNotFound):
		return u.createConversation(ctx, sess, owner, counterpart, in.CounterpartName, m, sm)

	default:
		return SendOutput{}, fmt.Errorf("directory lookup: %w", err)
	}
}

// createConversation builds both summary copies, appends them to each
// participant's directory, then creates the shared log. Best-effort, not
// transactional: any failure aborts without cleanup of earlier writes.
func (u *SyncUsecase) createConversation(
	ctx context.Context,
	sess Session,
	owner, counterpart, counterpartName string,
	m msgdom.Message,
	sm msgdom.StoredMessage,
) (SendOutput, error) {
	convID := convdom.MintID(m.ID)

	latest := convdom.LatestMessage{
		Date:   msgdom.FormatDate(m.SentAt),
		Text:   m.PreviewText(),
		IsRead: false,
	}

	ownerCopy := convdom.Summary{
		ID:             convID,
		CounterpartKey: counterpart,
		Name:           strings.TrimSpace(counterpartName),
		LatestMessage:  latest,
	}
	counterpartCopy := convdom.Summary{
		ID:             convID,
		CounterpartKey: owner,
		Name:           strings.TrimSpace(sess.Name),
		LatestMessage:  latest,
	}

	if err := u.dir.Append(ctx, owner, ownerCopy); err != nil {
		return SendOutput{}, fmt.Errorf("append owner directory: %w", err)
	}
	if err := u.dir.Append(ctx, counterpart, counterpartCopy); err != nil {
		// Owner's copy is already visible; the recipient's never will be.
		// Surfaced as a failed send, no repair.
		log.Printf("[sync] counterpart directory write failed, conversation %s is asymmetric: %v", convID, err)
		return SendOutput{}, fmt.Errorf("append counterpart directory: %w", err)
	}
	if err := u.log.Create(ctx, convID, sm); err != nil {
		return SendOutput{}, fmt.Errorf("create log: %w", err)
	}

	return SendOutput{ConversationID: convID, Message: m, Created: true}, nil
}

// =======================
// Reads
// =======================

// ListConversations returns the caller's directory in insertion order.
func (u *SyncUsecase) ListConversations(ctx context.Context, sess Session) ([]convdom.Summary, error) {
	if !sess.Valid() {
		return nil, ErrNoSession
	}
	return u.dir.List(ctx, sess.Key())
}

// Exists resolves the conversation id the caller shares with counterpart,
// or conversation.ErrNotFound.
func (u *SyncUsecase) Exists(ctx context.Context, sess Session, counterpartEmail string) (string, error) {
	if !sess.Valid() {
		return "", ErrNoSession
	}
	counterpart := userdom.SafeEmail(strings.TrimSpace(counterpartEmail))
	return u.dir.Exists(ctx, sess.Key(), counterpart)
}

// Messages is the one-shot log read.
func (u *SyncUsecase) Messages(ctx context.Context, sess Session, conversationID string) ([]msgdom.Message, error) {
	if !sess.Valid() {
		return nil, ErrNoSession
	}
	id := strings.TrimSpace(conversationID)
	if id == "" {
		return nil, convdom.ErrInvalidID
	}
	return u.log.Messages(ctx, id)
}

// Watch opens a standing full-snapshot subscription on the log. The
// subscription lives until ctx ends; callers own the ctx (typically the
// request or screen lifetime) and tear it down by cancelling.
func (u *SyncUsecase) Watch(ctx context.Context, sess Session, conversationID string) (<-chan []msgdom.Message, error) {
	if !sess.Valid() {
		return nil, ErrNoSession
	}
	id := strings.TrimSpace(conversationID)
	if id == "" {
		return nil, convdom.ErrInvalidID
	}
	return u.log.Subscribe(ctx, id)
}
