package wa

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	intsync "github.com/sudomakes/oneway/internal/sync"
)

// History buffers the messages WhatsApp pushes to a linked device, per chat,
// so sync passes can page through them. Each chat keeps at most capacity of
// its newest messages.
type History struct {
	mu       sync.Mutex
	capacity int
	chats    map[string]*chatBuffer
	updated  time.Time
}

type chatBuffer struct {
	chat intsync.RemoteChat
	msgs []intsync.RemoteMessage // oldest first
	ids  map[string]struct{}
}

// NewHistory creates a buffer keeping capacity messages per chat.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = intsync.DefaultPageSize
	}
	return &History{capacity: capacity, chats: make(map[string]*chatBuffer)}
}

func (h *History) buffer(id string) *chatBuffer {
	b, ok := h.chats[id]
	if !ok {
		b = &chatBuffer{chat: intsync.RemoteChat{ID: id}, ids: make(map[string]struct{})}
		h.chats[id] = b
	}
	return b
}

// Observe records chat metadata. Empty names never replace a known name and
// activity never moves backwards.
func (h *History) Observe(c intsync.RemoteChat) {
	if c.ID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	b := h.buffer(c.ID)
	if c.Name != "" {
		b.chat.Name = c.Name
	}
	b.chat.IsGroup = b.chat.IsGroup || c.IsGroup
	b.chat.LastActivity = max(b.chat.LastActivity, c.LastActivity)
	h.updated = time.Now()
}

// Add buffers messages for chatID, dropping ids already held and evicting
// the oldest beyond capacity.
func (h *History) Add(chatID string, msgs ...intsync.RemoteMessage) {
	if chatID == "" || len(msgs) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	b := h.buffer(chatID)
	for _, m := range msgs {
		if _, dup := b.ids[m.ID]; dup {
			continue
		}
		b.ids[m.ID] = struct{}{}
		b.msgs = append(b.msgs, m)
		b.chat.LastActivity = max(b.chat.LastActivity, m.Timestamp)
	}
	slices.SortStableFunc(b.msgs, func(x, y intsync.RemoteMessage) int {
		return cmp.Compare(x.Timestamp, y.Timestamp)
	})
	if over := len(b.msgs) - h.capacity; over > 0 {
		for _, m := range b.msgs[:over] {
			delete(b.ids, m.ID)
		}
		b.msgs = slices.Clone(b.msgs[over:])
	}
	h.updated = time.Now()
}

// Chats returns every known chat, most recently active first.
func (h *History) Chats() []intsync.RemoteChat {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]intsync.RemoteChat, 0, len(h.chats))
	for _, b := range h.chats {
		out = append(out, b.chat)
	}
	sortChats(out)
	return out
}

// Recent returns up to limit of the chat's newest messages, oldest first.
func (h *History) Recent(chatID string, limit int) []intsync.RemoteMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.chats[chatID]
	if !ok {
		return nil
	}
	msgs := b.msgs
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return slices.Clone(msgs)
}

// Len returns the number of buffered messages across all chats.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, b := range h.chats {
		n += len(b.msgs)
	}
	return n
}

// Settle waits until the buffer has seen no update for quiet, giving up
// after limit. WhatsApp delivers history in bursts right after connecting.
func (h *History) Settle(ctx context.Context, quiet, limit time.Duration) error {
	if quiet <= 0 {
		return nil
	}
	deadline := time.Now().Add(limit)
	tick := time.NewTicker(quiet / 4)
	defer tick.Stop()

	for {
		h.mu.Lock()
		idle := time.Since(h.updated)
		h.mu.Unlock()
		if idle >= quiet || time.Now().After(deadline) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

func sortChats(chats []intsync.RemoteChat) {
	slices.SortStableFunc(chats, func(a, b intsync.RemoteChat) int {
		if c := cmp.Compare(b.LastActivity, a.LastActivity); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
