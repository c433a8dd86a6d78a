// Package query holds the read-side operations shared by the send and search
// flows. Every call is a plain read and is safe while a sync pass is writing.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sudomakes/oneway/internal/store"
)

// DefaultLimit bounds search results when the caller passes no limit.
const DefaultLimit = 20

// ErrEmptyQuery is returned for searches with a blank query.
var ErrEmptyQuery = errors.New("search query is empty")

// Service answers read queries against the archive.
type Service struct {
	db    *store.DB
	limit int
}

// NewService creates a query service. limit is the default result cap for
// searches; zero or less means DefaultLimit.
func NewService(db *store.DB, limit int) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{db: db, limit: limit}
}

func (s *Service) resolveLimit(limit int) int {
	if limit <= 0 {
		return s.limit
	}
	return limit
}

// SearchAll returns messages in any chat whose body contains query, newest
// first.
func (s *Service) SearchAll(query string, limit int) ([]store.Message, error) {
	return s.SearchInChat(query, "", limit)
}

// SearchInChat is SearchAll restricted to messages stored under chatName.
// Chats sharing a display name are searched together.
func (s *Service) SearchInChat(query, chatName string, limit int) ([]store.Message, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	msgs, err := s.db.SearchMessages(query, chatName, s.resolveLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	return msgs, nil
}

// LastSent returns the newest message the user sent to chatName, or nil.
func (s *Service) LastSent(chatName string) (*store.Message, error) {
	m, err := s.db.LastSentMessage(chatName)
	if err != nil {
		return nil, fmt.Errorf("last sent message: %w", err)
	}
	return m, nil
}

// ResolveChat finds a chat by exact display name, preferring a group over an
// individual chat. When several chats share the name the most recently
// active one wins. Returns nil if nothing matches.
func (s *Service) ResolveChat(name string) (*store.Chat, error) {
	for _, isGroup := range []bool{true, false} {
		c, err := s.db.GetChatByName(name, isGroup)
		if err != nil {
			return nil, fmt.Errorf("get chat by name: %w", err)
		}
		if c != nil {
			return c, nil
		}
	}
	return nil, nil
}

// Chats lists chats by recent activity, optionally filtered by a name
// substring.
func (s *Service) Chats(filter string, limit int) ([]store.Chat, error) {
	var (
		chats []store.Chat
		err   error
	)
	if f := strings.TrimSpace(filter); f != "" {
		chats, err = s.db.SearchChats(f, limit)
	} else {
		chats, err = s.db.ListChats(limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// Stats returns archive counts.
func (s *Service) Stats() (*store.Stats, error) {
	st, err := s.db.Stats()
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}
