package model

import (
	"context"
	"strings"
	"sync"

	"github.com/sudomakes/oneway/internal/bus"
	"github.com/sudomakes/oneway/internal/progress"
	"github.com/sudomakes/oneway/internal/send"
	"github.com/sudomakes/oneway/internal/status"
	"github.com/sudomakes/oneway/internal/store"
)

// Queries is the read side the TUI needs from the archive.
type Queries interface {
	Chats(filter string, limit int) ([]store.Chat, error)
	SearchAll(query string, limit int) ([]store.Message, error)
	SearchInChat(query, chatName string, limit int) ([]store.Message, error)
	LastSent(chatName string) (*store.Message, error)
	ResolveChat(name string) (*store.Chat, error)
	Stats() (*store.Stats, error)
}

// Sender delivers one message to a recipient.
type Sender interface {
	Send(ctx context.Context, recipient, text string) (*send.Result, error)
}

// ViewModel caches archive reads and live status, and signals UI refreshes.
type ViewModel struct {
	mu sync.RWMutex

	queries Queries
	sender  Sender

	Chats      []store.Chat
	Results    []store.Message
	Query      string
	ActiveChat *store.Chat
	LastSent   *store.Message
	Progress   progress.Update
	Session    status.State
	Stats      store.Stats
	Flash      Flash

	refreshCh chan struct{}
}

// NewViewModel creates a view model over the query layer and sender.
func NewViewModel(q Queries, s Sender) *ViewModel {
	return &ViewModel{
		queries:   q,
		sender:    s,
		Progress:  progress.Update{Phase: progress.Idle},
		Session:   status.Offline,
		refreshCh: make(chan struct{}, 1),
	}
}

// RefreshCh returns the channel that signals UI refresh.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

func (vm *ViewModel) signalRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// LoadChats reloads the chat list, optionally filtered by name.
func (vm *ViewModel) LoadChats(filter string, limit int) error {
	chats, err := vm.queries.Chats(filter, limit)
	if err != nil {
		return err
	}
	stats, err := vm.queries.Stats()
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.Chats = chats
	vm.Stats = *stats
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// GetChats returns a snapshot of the cached chat list.
func (vm *ViewModel) GetChats() []store.Chat {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	out := make([]store.Chat, len(vm.Chats))
	copy(out, vm.Chats)
	return out
}

// OpenChat makes chat the compose target and loads its last sent message.
func (vm *ViewModel) OpenChat(chat store.Chat) error {
	last, err := vm.queries.LastSent(chat.Name)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.ActiveChat = &chat
	vm.LastSent = last
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// OpenChatByName opens the chat called name. It reports false when no
// archived chat has that name.
func (vm *ViewModel) OpenChatByName(name string) (bool, error) {
	chat, err := vm.queries.ResolveChat(name)
	if err != nil || chat == nil {
		return false, err
	}
	return true, vm.OpenChat(*chat)
}

// Active returns the compose target and its last sent message.
func (vm *ViewModel) Active() (*store.Chat, *store.Message) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.ActiveChat, vm.LastSent
}

// Search runs query across the archive, or within chatName when it is set.
func (vm *ViewModel) Search(query, chatName string, limit int) error {
	var (
		results []store.Message
		err     error
	)
	if strings.TrimSpace(chatName) == "" {
		results, err = vm.queries.SearchAll(query, limit)
	} else {
		results, err = vm.queries.SearchInChat(query, chatName, limit)
	}
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.Results = results
	vm.Query = query
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// GetResults returns the last search results and the query that produced them.
func (vm *ViewModel) GetResults() ([]store.Message, string) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	out := make([]store.Message, len(vm.Results))
	copy(out, vm.Results)
	return out, vm.Query
}

// SendToActive sends text to the active chat and refreshes its last sent
// message with the final text.
func (vm *ViewModel) SendToActive(ctx context.Context, text string) (*send.Result, error) {
	vm.mu.RLock()
	active := vm.ActiveChat
	vm.mu.RUnlock()
	if active == nil {
		return nil, send.ErrNoRecipient
	}

	res, err := vm.sender.Send(ctx, active.ID, text)
	if err != nil {
		return nil, err
	}
	vm.mu.Lock()
	vm.LastSent = &store.Message{
		ID:       res.ServerMsgID,
		ChatID:   active.ID,
		ChatName: active.Name,
		Body:     res.Text,
		FromMe:   true,
		IsGroup:  active.IsGroup,
	}
	vm.mu.Unlock()
	vm.signalRefresh()
	return res, nil
}

// Apply folds a bus event into the cached status. It reports whether the
// event was one the view model tracks.
func (vm *ViewModel) Apply(evt bus.Event) bool {
	if u, ok := progress.FromEvent(evt); ok {
		vm.mu.Lock()
		vm.Progress = u
		vm.mu.Unlock()
		if u.Phase == progress.Error {
			vm.Flash.Err("sync failed: " + u.ErrorMessage)
		}
		vm.signalRefresh()
		return true
	}
	if c, ok := evt.Payload.(status.Change); ok && evt.Kind == status.KindChanged {
		vm.mu.Lock()
		vm.Session = c.To
		vm.mu.Unlock()
		if c.To == status.LoggedOut {
			vm.Flash.Warn("logged out from WhatsApp, run oneway again to link")
		}
		vm.signalRefresh()
		return true
	}
	return false
}

// Status returns the session state, the latest sync progress and archive
// counts.
func (vm *ViewModel) Status() (status.State, progress.Update, store.Stats) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.Session, vm.Progress, vm.Stats
}
