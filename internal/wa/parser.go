package wa

import (
	intsync "github.com/sudomakes/oneway/internal/sync"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/proto/waWeb"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// ParsedMessage is a message normalized for the history buffer.
type ParsedMessage struct {
	ChatID   string
	IsGroup  bool
	PushName string
	Message  intsync.RemoteMessage
}

// NormalizeJID strips the device part so every device of a user maps to one
// chat. Unparseable input is returned unchanged.
func NormalizeJID(s string) string {
	if s == "" {
		return ""
	}
	jid, err := types.ParseJID(s)
	if err != nil {
		return s
	}
	return jidString(jid)
}

func jidString(jid types.JID) string {
	if jid.IsEmpty() {
		return ""
	}
	return jid.ToNonAD().String()
}

// ParseLiveMessage normalizes a live whatsmeow message event. self is the
// account's own JID, used as the sender of outgoing messages.
func ParseLiveMessage(evt *events.Message, self string) *ParsedMessage {
	chatID := jidString(evt.Info.Chat)
	sender := jidString(evt.Info.Sender)
	if evt.Info.IsFromMe && self != "" {
		sender = self
	}
	return &ParsedMessage{
		ChatID:   chatID,
		IsGroup:  evt.Info.IsGroup || evt.Info.Chat.Server == types.GroupServer,
		PushName: evt.Info.PushName,
		Message: intsync.RemoteMessage{
			ID:        evt.Info.ID,
			SenderID:  sender,
			Body:      extractTextBody(evt.Message),
			Timestamp: evt.Info.Timestamp.Unix(),
			FromMe:    evt.Info.IsFromMe,
		},
	}
}

// ParseHistoryMessage normalizes one message of a history sync conversation.
// It returns nil for entries without a key or payload.
func ParseHistoryMessage(chatID string, wmi *waWeb.WebMessageInfo, self string) *ParsedMessage {
	if wmi == nil || wmi.GetKey() == nil || wmi.GetMessage() == nil {
		return nil
	}
	key := wmi.GetKey()
	if key.GetID() == "" {
		return nil
	}

	chat, _ := types.ParseJID(chatID)
	isGroup := chat.Server == types.GroupServer

	var sender string
	switch {
	case key.GetFromMe():
		sender = self
	case key.GetParticipant() != "":
		sender = NormalizeJID(key.GetParticipant())
	case wmi.GetParticipant() != "":
		sender = NormalizeJID(wmi.GetParticipant())
	case !isGroup:
		sender = chatID
	}

	return &ParsedMessage{
		ChatID:   chatID,
		IsGroup:  isGroup,
		PushName: wmi.GetPushName(),
		Message: intsync.RemoteMessage{
			ID:        key.GetID(),
			SenderID:  sender,
			Body:      extractTextBody(wmi.GetMessage()),
			Timestamp: int64(wmi.GetMessageTimestamp()),
			FromMe:    key.GetFromMe(),
		},
	}
}

func extractTextBody(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if c := msg.GetConversation(); c != "" {
		return c
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	switch {
	case msg.GetImageMessage() != nil:
		return msg.GetImageMessage().GetCaption()
	case msg.GetVideoMessage() != nil:
		return msg.GetVideoMessage().GetCaption()
	case msg.GetDocumentMessage() != nil:
		return msg.GetDocumentMessage().GetCaption()
	}
	return ""
}
