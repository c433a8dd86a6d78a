package wa

import (
	"context"
	"fmt"
	"time"

	intsync "github.com/sudomakes/oneway/internal/sync"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Directory is the part of the live session the source reads besides the
// history buffer.
type Directory interface {
	IsLoggedIn() bool
	JoinedGroups(ctx context.Context) ([]intsync.RemoteChat, error)
	ContactNames(ctx context.Context) map[string]string
}

// SourceOptions tunes a Source.
type SourceOptions struct {
	FetchRate   float64       // page fetches per second; 0 means unlimited
	SettleQuiet time.Duration // history must be idle this long before listing
	SettleMax   time.Duration
}

// Source serves sync passes from the history buffer and the joined group
// list. It never changes session state.
type Source struct {
	dir     Directory
	history *History
	limiter *rate.Limiter
	opts    SourceOptions
	logger  *zap.Logger
}

var _ intsync.Source = (*Source)(nil)

// NewSource creates a source over dir and history.
func NewSource(dir Directory, history *History, opts SourceOptions, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if opts.FetchRate > 0 {
		limit = rate.Limit(opts.FetchRate)
	}
	return &Source{
		dir:     dir,
		history: history,
		limiter: rate.NewLimiter(limit, 1),
		opts:    opts,
		logger:  logger,
	}
}

// ListChats merges buffered chats with the joined groups, filling missing
// names from the contact book, most recently active first.
func (s *Source) ListChats(ctx context.Context) ([]intsync.RemoteChat, error) {
	if !s.dir.IsLoggedIn() {
		return nil, ErrNotLoggedIn
	}
	if err := s.history.Settle(ctx, s.opts.SettleQuiet, s.opts.SettleMax); err != nil {
		return nil, err
	}

	groups, err := s.dir.JoinedGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("joined groups: %w", err)
	}
	for _, g := range groups {
		s.history.Observe(g)
	}

	chats := s.history.Chats()
	names := s.dir.ContactNames(ctx)
	for i := range chats {
		if chats[i].Name == "" && !chats[i].IsGroup {
			chats[i].Name = names[chats[i].ID]
		}
	}
	sortChats(chats)

	s.logger.Info("chats listed",
		zap.Int("chats", len(chats)),
		zap.Int("groups", len(groups)),
		zap.Int("buffered_messages", s.history.Len()))
	return chats, nil
}

// FetchRecentMessages returns the chat's newest buffered messages, waiting
// on the fetch rate limit first.
func (s *Source) FetchRecentMessages(ctx context.Context, chat intsync.RemoteChat, limit int) ([]intsync.RemoteMessage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return s.history.Recent(chat.ID, limit), nil
}
