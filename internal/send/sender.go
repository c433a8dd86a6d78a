// Package send resolves a recipient and delivers one outbound text message.
package send

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sudomakes/oneway/internal/bus"
	"github.com/sudomakes/oneway/internal/store"
	"go.uber.org/zap"
)

// Bus kinds published after each send attempt.
const (
	KindSent       = "message.sent"
	KindSendFailed = "message.send_failed"
)

var (
	ErrEmptyMessage  = errors.New("message is empty")
	ErrNoRecipient   = errors.New("recipient is empty")
	ErrInvalidPhone  = errors.New("not a chat name or phone number")
	ErrNotRegistered = errors.New("phone number is not registered on WhatsApp")
)

// TextSender is the interface for sending text messages via WhatsApp.
type TextSender interface {
	SendText(ctx context.Context, chatID, text string) (serverMsgID string, err error)
}

// NumberResolver looks up the chat id registered for a phone number given as
// country code plus digits. ok is false if the number has no account.
type NumberResolver interface {
	ResolvePhone(ctx context.Context, digits string) (chatID string, ok bool, err error)
}

// ChatLookup finds a synced chat by display name, or returns nil.
type ChatLookup interface {
	ResolveChat(name string) (*store.Chat, error)
}

// Via says how a recipient was resolved.
type Via string

const (
	ViaChatID Via = "chat_id"
	ViaGroup  Via = "group"
	ViaName   Via = "contact"
	ViaPhone  Via = "phone"
)

// Recipient is a resolved destination.
type Recipient struct {
	ChatID string
	Name   string // display name when resolved from the archive
	Via    Via
}

// Result describes a delivered message.
type Result struct {
	Recipient   Recipient
	ServerMsgID string
	Text        string // final text including the suffix
}

// Sent is the payload for KindSent events.
type Sent struct {
	ChatID      string
	ServerMsgID string
}

// SendFailed is the payload for KindSendFailed events.
type SendFailed struct {
	ChatID string
	Error  string
}

// Sender sends messages via the WhatsApp adapter.
type Sender struct {
	chats   ChatLookup
	numbers NumberResolver
	text    TextSender
	suffix  string
	bus     *bus.Bus
	logger  *zap.Logger
}

// NewSender creates a sender. suffix is appended to every message; b may be
// nil.
func NewSender(chats ChatLookup, numbers NumberResolver, text TextSender, suffix string, b *bus.Bus, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		chats:   chats,
		numbers: numbers,
		text:    text,
		suffix:  suffix,
		bus:     b,
		logger:  logger,
	}
}

// Resolve turns user input into a chat id. Input containing "@" is taken as
// a chat id. Otherwise a synced group with that exact name wins, then a
// synced individual chat, then the input is treated as a phone number and
// checked for registration.
func (s *Sender) Resolve(ctx context.Context, recipient string) (*Recipient, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, ErrNoRecipient
	}
	if strings.Contains(recipient, "@") {
		return &Recipient{ChatID: recipient, Via: ViaChatID}, nil
	}

	chat, err := s.chats.ResolveChat(recipient)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", recipient, err)
	}
	if chat != nil {
		via := ViaName
		if chat.IsGroup {
			via = ViaGroup
		}
		return &Recipient{ChatID: chat.ID, Name: chat.Name, Via: via}, nil
	}

	if !ValidatePhoneNumber(recipient) {
		return nil, fmt.Errorf("%q: %w", recipient, ErrInvalidPhone)
	}
	digits := FormatPhoneNumber(recipient)
	chatID, ok, err := s.numbers.ResolvePhone(ctx, digits)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", digits, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", recipient, ErrNotRegistered)
	}
	return &Recipient{ChatID: chatID, Via: ViaPhone}, nil
}

// Send resolves recipient, applies the suffix and sends text.
func (s *Sender) Send(ctx context.Context, recipient, text string) (*Result, error) {
	if err := ValidateMessage(text); err != nil {
		return nil, err
	}
	rcpt, err := s.Resolve(ctx, recipient)
	if err != nil {
		return nil, err
	}
	final := ApplySuffix(Sanitize(text), s.suffix)

	log := s.logger.With(zap.String("chat_id", rcpt.ChatID), zap.String("via", string(rcpt.Via)))
	serverMsgID, err := s.text.SendText(ctx, rcpt.ChatID, final)
	if err != nil {
		log.Error("failed to send message", zap.Error(err))
		s.publish(KindSendFailed, SendFailed{ChatID: rcpt.ChatID, Error: err.Error()})
		return nil, fmt.Errorf("send to %s: %w", rcpt.ChatID, err)
	}

	log.Info("message sent", zap.String("server_msg_id", serverMsgID))
	s.publish(KindSent, Sent{ChatID: rcpt.ChatID, ServerMsgID: serverMsgID})
	return &Result{Recipient: *rcpt, ServerMsgID: serverMsgID, Text: final}, nil
}

func (s *Sender) publish(kind string, payload any) {
	if s.bus != nil {
		s.bus.Publish(bus.Event{Kind: kind, Payload: payload})
	}
}
