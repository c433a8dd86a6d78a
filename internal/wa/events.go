package wa

import (
	"context"

	"github.com/sudomakes/oneway/internal/bus"
	"github.com/sudomakes/oneway/internal/status"
	intsync "github.com/sudomakes/oneway/internal/sync"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
)

// KindHistorySync is published after a history sync blob is buffered.
const KindHistorySync = "wa.history_sync"

// HistoryBatch is the payload for KindHistorySync events.
type HistoryBatch struct {
	Conversations int
	Messages      int
}

// identity resolves LIDs and knows the account's own JID. *Adapter
// implements it; nil disables both.
type identity interface {
	ResolveLID(ctx context.Context, jid types.JID) types.JID
	Self() string
}

// EventHandler processes whatsmeow events: it drives the session state
// machine and feeds pushed messages into the history buffer. It never writes
// to the archive; sync passes read the buffer.
type EventHandler struct {
	history *History
	machine *status.Machine
	bus     *bus.Bus
	id      identity
	logger  *zap.Logger
}

// NewEventHandler creates a new event handler. id may be nil.
func NewEventHandler(history *History, machine *status.Machine, b *bus.Bus, id identity, logger *zap.Logger) *EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHandler{
		history: history,
		machine: machine,
		bus:     b,
		id:      id,
		logger:  logger,
	}
}

// Handle is the main whatsmeow event handler function.
func (h *EventHandler) Handle(rawEvt any) {
	switch evt := rawEvt.(type) {
	case *events.Message:
		h.handleMessage(evt)
	case *events.HistorySync:
		h.handleHistorySync(evt)
	case *events.Connected:
		h.logger.Info("WhatsApp connected")
		if h.machine.Current() != status.Connecting {
			_ = h.machine.Transition(status.Connecting)
		}
		_ = h.machine.Transition(status.Connected)
	case *events.Disconnected:
		h.logger.Warn("WhatsApp disconnected")
		_ = h.machine.Transition(status.Connecting)
	case *events.LoggedOut:
		h.logger.Warn("WhatsApp logged out", zap.String("reason", evt.Reason.String()))
		_ = h.machine.Transition(status.LoggedOut)
	}
}

func (h *EventHandler) self() string {
	if h.id == nil {
		return ""
	}
	return h.id.Self()
}

// resolveJID normalizes jid and maps LIDs to phone numbers when possible.
func (h *EventHandler) resolveJID(jid types.JID) string {
	if h.id != nil {
		jid = h.id.ResolveLID(context.Background(), jid.ToNonAD())
	}
	return jidString(jid)
}

func (h *EventHandler) resolveString(s string) string {
	jid, err := types.ParseJID(s)
	if err != nil {
		return s
	}
	return h.resolveJID(jid)
}

func (h *EventHandler) handleMessage(evt *events.Message) {
	parsed := ParseLiveMessage(evt, h.self())
	parsed.ChatID = h.resolveJID(evt.Info.Chat)
	if !evt.Info.IsFromMe {
		parsed.Message.SenderID = h.resolveJID(evt.Info.Sender)
	}

	chat := intsync.RemoteChat{
		ID:           parsed.ChatID,
		IsGroup:      parsed.IsGroup,
		LastActivity: parsed.Message.Timestamp,
	}
	if !parsed.IsGroup && !parsed.Message.FromMe {
		chat.Name = parsed.PushName
	}
	h.history.Observe(chat)
	h.history.Add(parsed.ChatID, parsed.Message)
}

func (h *EventHandler) handleHistorySync(evt *events.HistorySync) {
	data := evt.Data
	if data == nil {
		return
	}

	self := h.self()
	batch := HistoryBatch{}
	for _, conv := range data.GetConversations() {
		chatID := h.resolveString(conv.GetID())
		if chatID == "" {
			continue
		}

		var msgs []intsync.RemoteMessage
		var pushName string
		for _, hm := range conv.GetMessages() {
			parsed := ParseHistoryMessage(chatID, hm.GetMessage(), self)
			if parsed == nil {
				continue
			}
			if parsed.Message.SenderID != "" && parsed.Message.SenderID != self {
				parsed.Message.SenderID = h.resolveString(parsed.Message.SenderID)
			}
			if !parsed.Message.FromMe && parsed.PushName != "" {
				pushName = parsed.PushName
			}
			msgs = append(msgs, parsed.Message)
		}

		chat := intsync.RemoteChat{
			ID:           chatID,
			Name:         conv.GetName(),
			IsGroup:      isGroupID(chatID),
			LastActivity: int64(conv.GetConversationTimestamp()),
		}
		if chat.Name == "" && !chat.IsGroup {
			chat.Name = pushName
		}
		h.history.Observe(chat)
		h.history.Add(chatID, msgs...)

		batch.Conversations++
		batch.Messages += len(msgs)
	}

	h.logger.Info("history sync buffered",
		zap.String("type", data.GetSyncType().String()),
		zap.Int("conversations", batch.Conversations),
		zap.Int("messages", batch.Messages))
	if h.bus != nil && batch.Conversations > 0 {
		h.bus.Publish(bus.Event{Kind: KindHistorySync, Payload: batch})
	}
}

func isGroupID(chatID string) bool {
	jid, err := types.ParseJID(chatID)
	return err == nil && jid.Server == types.GroupServer
}
