package wa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sudomakes/oneway/internal/bus"
	"github.com/sudomakes/oneway/internal/status"
	intsync "github.com/sudomakes/oneway/internal/sync"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	wastore "go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotLoggedIn is returned when an operation needs a paired session.
var ErrNotLoggedIn = errors.New("whatsapp session is not logged in")

// Adapter wraps the whatsmeow client and manages the WhatsApp connection.
type Adapter struct {
	client    *whatsmeow.Client
	container *sqlstore.Container
	machine   *status.Machine
	bus       *bus.Bus
	logger    *zap.Logger
}

// NewAdapter opens the session store at authDBPath and creates a client for
// its device.
func NewAdapter(ctx context.Context, authDBPath string, b *bus.Bus, machine *status.Machine, logger *zap.Logger) (*Adapter, error) {
	// Device name shown in the phone's linked devices list.
	wastore.SetOSInfo("oneway", [3]uint32{0, 1, 0})

	container, err := sqlstore.New(ctx, "sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=on", authDBPath),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get device store: %w", err)
	}

	return &Adapter{
		client:    whatsmeow.NewClient(deviceStore, nil),
		container: container,
		machine:   machine,
		bus:       b,
		logger:    logger,
	}, nil
}

// Client returns the underlying whatsmeow client.
func (a *Adapter) Client() *whatsmeow.Client {
	return a.client
}

// IsLoggedIn returns whether the adapter has valid credentials.
func (a *Adapter) IsLoggedIn() bool {
	return a.client.Store.ID != nil
}

// Self returns the account's own JID without device, or "".
func (a *Adapter) Self() string {
	if a.client.Store.ID == nil {
		return ""
	}
	return jidString(*a.client.Store.ID)
}

// PhoneNumber returns the phone number from the device store, or "".
func (a *Adapter) PhoneNumber() string {
	if a.client.Store.ID == nil {
		return ""
	}
	return a.client.Store.ID.User
}

// Connect initiates the WhatsApp connection for a paired session.
func (a *Adapter) Connect() error {
	if !a.IsLoggedIn() {
		_ = a.machine.Transition(status.AuthRequired)
		return ErrNotLoggedIn
	}
	a.logger.Info("connecting to WhatsApp")
	_ = a.machine.Transition(status.Connecting)
	if err := a.client.Connect(); err != nil {
		_ = a.machine.Transition(status.Error)
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

// WaitConnected blocks until the session reports connected.
func (a *Adapter) WaitConnected(ctx context.Context) error {
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		switch a.machine.Current() {
		case status.Connected:
			return nil
		case status.LoggedOut, status.AuthRequired:
			return ErrNotLoggedIn
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for connection: %w", ctx.Err())
		case <-tick.C:
		}
	}
}

// Disconnect terminates the WhatsApp connection.
func (a *Adapter) Disconnect() {
	a.logger.Info("disconnecting from WhatsApp")
	a.client.Disconnect()
	_ = a.machine.Transition(status.Offline)
}

// Logout invalidates the session and removes credentials.
func (a *Adapter) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	_ = a.machine.Transition(status.LoggedOut)
	return nil
}

// RegisterEventHandler adds a handler for whatsmeow events.
func (a *Adapter) RegisterEventHandler(handler whatsmeow.EventHandler) {
	a.client.AddEventHandler(handler)
}

// SendText sends a text message to the given chat. Returns the server
// message ID.
func (a *Adapter) SendText(ctx context.Context, chatID string, text string) (string, error) {
	to, err := types.ParseJID(chatID)
	if err != nil {
		return "", fmt.Errorf("parse JID: %w", err)
	}
	resp, err := a.client.SendMessage(ctx, to, &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return resp.ID, nil
}

// ResolvePhone checks whether digits (country code plus number) has a
// WhatsApp account and returns its chat id.
func (a *Adapter) ResolvePhone(ctx context.Context, digits string) (string, bool, error) {
	resp, err := a.client.IsOnWhatsApp(ctx, []string{"+" + digits})
	if err != nil {
		return "", false, fmt.Errorf("is on whatsapp: %w", err)
	}
	for _, r := range resp {
		if r.IsIn {
			return jidString(r.JID), true, nil
		}
	}
	return "", false, nil
}

// JoinedGroups lists the groups the account belongs to.
func (a *Adapter) JoinedGroups(ctx context.Context) ([]intsync.RemoteChat, error) {
	groups, err := a.client.GetJoinedGroups(ctx)
	if err != nil {
		return nil, err
	}
	chats := make([]intsync.RemoteChat, 0, len(groups))
	for _, g := range groups {
		chats = append(chats, intsync.RemoteChat{
			ID:      jidString(g.JID),
			Name:    g.Name,
			IsGroup: true,
		})
	}
	return chats, nil
}

// ContactNames maps contact JIDs to the best known display name.
func (a *Adapter) ContactNames(ctx context.Context) map[string]string {
	all, err := a.client.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		a.logger.Warn("failed to get contacts from device store", zap.Error(err))
		return nil
	}
	names := make(map[string]string, len(all))
	for jid, info := range all {
		name := info.FullName
		if name == "" {
			name = info.PushName
		}
		if name == "" {
			name = info.BusinessName
		}
		if name != "" {
			names[jidString(jid)] = name
		}
	}
	return names
}

// ResolveLID resolves a LID JID to its phone number JID using the device
// store mapping. Returns the original JID if it's not a LID or if resolution
// fails.
func (a *Adapter) ResolveLID(ctx context.Context, jid types.JID) types.JID {
	if jid.Server != types.HiddenUserServer && jid.Server != types.HostedLIDServer {
		return jid
	}
	if a.client == nil || a.client.Store == nil || a.client.Store.LIDs == nil {
		return jid
	}
	pn, err := a.client.Store.LIDs.GetPNForLID(ctx, jid)
	if err != nil || pn.IsEmpty() {
		return jid
	}
	return pn
}
