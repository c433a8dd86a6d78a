package store

// Chat is one conversation known to the archive.
type Chat struct {
	ID              string
	Name            string
	IsGroup         bool
	LastMessageTime int64 // epoch seconds
	UnreadCount     int
}

// Message is an immutable archived message. ChatID holds the source-side
// sender/thread identifier, which for group messages is the participant and
// not the group chat id. ChatName and IsGroup are copied from the owning chat
// at insert time.
type Message struct {
	ID        string
	ChatID    string
	ChatName  string
	Body      string
	Timestamp int64 // epoch seconds
	FromMe    bool
	IsGroup   bool
}

// Stats holds archive row counts.
type Stats struct {
	Chats    int64
	Messages int64
}

const (
	defaultChatLimit    = 100
	defaultMessageLimit = 100
	defaultSearchLimit  = 20
)
