// internal/domain/conversation/repository_port.go
package conversation

import (
	"context"

	msgdom "messenger/internal/domain/message"
)

// Directory は参加者ごとの会話一覧（Summary のリスト）の永続化ポートです。
// リストは owner の利用者レコードに丸ごと埋め込まれ、更新は常に
// read-modify-write で行われます（ストアの基本操作が「部分木の置換」のため）。
type Directory interface {
	// Exists looks up whether owner already has a conversation with
	// counterpart. Returns the conversation id when found, ErrNotFound when
	// absent (a distinguishable miss, not a hard failure).
	Exists(ctx context.Context, owner, counterpart string) (string, error)

	// Append reads owner's whole list (empty if the field is missing),
	// appends, and writes the whole list back.
	Append(ctx context.Context, owner string, s Summary) error

	// List returns owner's conversations in insertion order. A missing
	// conversations field yields an empty slice and nil error;
	// ErrFailedToFetch only when the owner record itself is unreadable.
	List(ctx context.Context, owner string) ([]Summary, error)
}

// Log は会話 ID ごとの共有メッセージログのポートです。ログは両参加者が
// 同じものを読みます（メッセージ単位の複製はありません）。
type Log interface {
	// Create writes a new log containing exactly the first message.
	// Fails with ErrConflict when a log already exists at id instead of
	// silently overwriting it.
	Create(ctx context.Context, id string, first msgdom.StoredMessage) error

	// Append fetches the current message list (or empty), appends, and
	// writes the whole list back. Concurrent appenders race: the store
	// offers no coordination and last writer wins.
	Append(ctx context.Context, id string, sm msgdom.StoredMessage) error

	// Messages is a one-shot read of the decoded log in insertion order.
	// Malformed records are dropped, never failing the whole read.
	Messages(ctx context.Context, id string) ([]msgdom.Message, error)

	// Subscribe is a standing watch on the log. Every underlying change
	// re-delivers the entire decoded list in insertion order (full-snapshot
	// semantics; subscribers diff if they want increments). An absent or
	// empty log delivers nothing until the first message exists. The watch
	// ends when ctx is cancelled, which closes the channel.
	Subscribe(ctx context.Context, id string) (<-chan []msgdom.Message, error)
}
