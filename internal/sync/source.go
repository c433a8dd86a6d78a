package sync

import "context"

// RemoteChat is a chat as listed by the source.
type RemoteChat struct {
	ID           string
	Name         string
	IsGroup      bool
	LastActivity int64 // epoch seconds
}

// RemoteMessage is a message as returned by a page fetch.
type RemoteMessage struct {
	ID        string
	SenderID  string
	Body      string
	Timestamp int64 // epoch seconds
	FromMe    bool
}

// Source is the authenticated remote the engine reads from. The engine only
// reads; it never changes session state.
type Source interface {
	// ListChats enumerates every chat visible to the account.
	ListChats(ctx context.Context) ([]RemoteChat, error)
	// FetchRecentMessages returns up to limit of the chat's most recent
	// messages in source order. It may fail for individual chats.
	FetchRecentMessages(ctx context.Context, chat RemoteChat, limit int) ([]RemoteMessage, error)
}
