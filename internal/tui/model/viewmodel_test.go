package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sudomakes/oneway/internal/bus"
	"github.com/sudomakes/oneway/internal/progress"
	"github.com/sudomakes/oneway/internal/send"
	"github.com/sudomakes/oneway/internal/status"
	"github.com/sudomakes/oneway/internal/store"
)

type fakeQueries struct {
	chats     []store.Chat
	all       []store.Message
	inChat    map[string][]store.Message
	lastSent  map[string]*store.Message
	gotFilter string
	err       error
}

func (f *fakeQueries) Chats(filter string, limit int) ([]store.Chat, error) {
	f.gotFilter = filter
	return f.chats, f.err
}

func (f *fakeQueries) SearchAll(query string, limit int) ([]store.Message, error) {
	return f.all, f.err
}

func (f *fakeQueries) SearchInChat(query, chatName string, limit int) ([]store.Message, error) {
	return f.inChat[chatName], f.err
}

func (f *fakeQueries) LastSent(chatName string) (*store.Message, error) {
	return f.lastSent[chatName], f.err
}

func (f *fakeQueries) ResolveChat(name string) (*store.Chat, error) {
	for i := range f.chats {
		if f.chats[i].Name == name {
			return &f.chats[i], f.err
		}
	}
	return nil, f.err
}

func (f *fakeQueries) Stats() (*store.Stats, error) {
	return &store.Stats{Chats: int64(len(f.chats)), Messages: 7}, f.err
}

type fakeSender struct {
	recipient string
	text      string
	err       error
}

func (f *fakeSender) Send(_ context.Context, recipient, text string) (*send.Result, error) {
	f.recipient, f.text = recipient, text
	if f.err != nil {
		return nil, f.err
	}
	return &send.Result{
		Recipient:   send.Recipient{ChatID: recipient, Via: send.ViaChatID},
		ServerMsgID: "srv-1",
		Text:        text + " [suffix]",
	}, nil
}

func TestLoadChats(t *testing.T) {
	q := &fakeQueries{chats: []store.Chat{{ID: "a", Name: "Alice"}, {ID: "b", Name: "Bob"}}}
	vm := NewViewModel(q, &fakeSender{})

	if err := vm.LoadChats("al", 50); err != nil {
		t.Fatalf("LoadChats: %v", err)
	}
	if q.gotFilter != "al" {
		t.Errorf("filter = %q, want al", q.gotFilter)
	}
	if diff := cmp.Diff(q.chats, vm.GetChats()); diff != "" {
		t.Errorf("chats mismatch (-want +got):\n%s", diff)
	}
	_, _, stats := vm.Status()
	if stats.Chats != 2 || stats.Messages != 7 {
		t.Errorf("stats = %+v", stats)
	}

	select {
	case <-vm.RefreshCh():
	default:
		t.Error("expected refresh signal")
	}
}

func TestLoadChatsError(t *testing.T) {
	vm := NewViewModel(&fakeQueries{err: errors.New("db closed")}, &fakeSender{})
	if err := vm.LoadChats("", 10); err == nil {
		t.Fatal("expected error")
	}
	if len(vm.GetChats()) != 0 {
		t.Error("chats should stay empty on error")
	}
}

func TestSearchScope(t *testing.T) {
	q := &fakeQueries{
		all:    []store.Message{{ID: "1"}, {ID: "2"}},
		inChat: map[string][]store.Message{"Family": {{ID: "2"}}},
	}
	vm := NewViewModel(q, &fakeSender{})

	tests := []struct {
		chat string
		want []string
	}{
		{"", []string{"1", "2"}},
		{"  ", []string{"1", "2"}},
		{"Family", []string{"2"}},
	}
	for _, tt := range tests {
		if err := vm.Search("hello", tt.chat, 20); err != nil {
			t.Fatalf("Search(%q): %v", tt.chat, err)
		}
		results, query := vm.GetResults()
		var got []string
		for _, m := range results {
			got = append(got, m.ID)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("chat %q (-want +got):\n%s", tt.chat, diff)
		}
		if query != "hello" {
			t.Errorf("query = %q", query)
		}
	}
}

func TestOpenChatAndSend(t *testing.T) {
	q := &fakeQueries{lastSent: map[string]*store.Message{
		"Alice": {ID: "m1", Body: "earlier", FromMe: true},
	}}
	s := &fakeSender{}
	vm := NewViewModel(q, s)

	if _, err := vm.SendToActive(context.Background(), "hi"); !errors.Is(err, send.ErrNoRecipient) {
		t.Fatalf("send without active chat: err = %v", err)
	}

	if err := vm.OpenChat(store.Chat{ID: "111@s.whatsapp.net", Name: "Alice"}); err != nil {
		t.Fatalf("OpenChat: %v", err)
	}
	chat, last := vm.Active()
	if chat == nil || chat.Name != "Alice" {
		t.Fatalf("active = %+v", chat)
	}
	if last == nil || last.Body != "earlier" {
		t.Fatalf("last sent = %+v", last)
	}

	res, err := vm.SendToActive(context.Background(), "hi")
	if err != nil {
		t.Fatalf("SendToActive: %v", err)
	}
	if s.recipient != "111@s.whatsapp.net" || s.text != "hi" {
		t.Errorf("sender got (%q, %q)", s.recipient, s.text)
	}
	_, last = vm.Active()
	if last.Body != res.Text || last.ID != "srv-1" {
		t.Errorf("last sent after send = %+v", last)
	}
}

func TestOpenChatByName(t *testing.T) {
	q := &fakeQueries{
		chats:    []store.Chat{{ID: "g1@g.us", Name: "Family", IsGroup: true}},
		lastSent: map[string]*store.Message{},
	}
	vm := NewViewModel(q, &fakeSender{})

	ok, err := vm.OpenChatByName("Nobody")
	if err != nil || ok {
		t.Fatalf("OpenChatByName(Nobody) = %v, %v", ok, err)
	}
	if chat, _ := vm.Active(); chat != nil {
		t.Errorf("active should stay nil, got %+v", chat)
	}

	ok, err = vm.OpenChatByName("Family")
	if err != nil || !ok {
		t.Fatalf("OpenChatByName(Family) = %v, %v", ok, err)
	}
	if chat, last := vm.Active(); chat.ID != "g1@g.us" || last != nil {
		t.Errorf("active = %+v last = %+v", chat, last)
	}
}

func TestSendFailureKeepsLastSent(t *testing.T) {
	q := &fakeQueries{lastSent: map[string]*store.Message{"Bob": {ID: "m1", Body: "old"}}}
	vm := NewViewModel(q, &fakeSender{err: errors.New("offline")})
	if err := vm.OpenChat(store.Chat{ID: "b", Name: "Bob"}); err != nil {
		t.Fatal(err)
	}
	if _, err := vm.SendToActive(context.Background(), "hi"); err == nil {
		t.Fatal("expected error")
	}
	if _, last := vm.Active(); last.Body != "old" {
		t.Errorf("last sent = %q, want old", last.Body)
	}
}

func TestApplyEvents(t *testing.T) {
	vm := NewViewModel(&fakeQueries{}, &fakeSender{})

	if vm.Apply(bus.Event{Kind: "message.sent", Payload: send.Sent{}}) {
		t.Error("unrelated event should not be applied")
	}

	u := progress.Update{Phase: progress.Syncing, CurrentChat: 2, TotalChats: 5}
	if !vm.Apply(bus.Event{Kind: progress.KindSyncProgress, Payload: u}) {
		t.Fatal("progress event not applied")
	}
	_, got, _ := vm.Status()
	if got != u {
		t.Errorf("progress = %+v, want %+v", got, u)
	}

	vm.Apply(bus.Event{Kind: status.KindChanged, Payload: status.Change{From: status.Connecting, To: status.Connected}})
	if state, _, _ := vm.Status(); state != status.Connected {
		t.Errorf("session = %s, want CONNECTED", state)
	}

	vm.Apply(bus.Event{Kind: progress.KindSyncError, Payload: progress.Update{Phase: progress.Error, ErrorMessage: "boom"}})
	msg := vm.Flash.Get()
	if msg == nil || msg.Level != FlashErr || msg.Text != "sync failed: boom" {
		t.Errorf("flash = %+v", msg)
	}
}

func TestFlashExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	f := &Flash{now: func() time.Time { return now }}

	if f.Get() != nil {
		t.Fatal("empty flash should be nil")
	}
	f.Info("saved")
	if m := f.Get(); m == nil || m.Text != "saved" || m.Level != FlashInfo {
		t.Fatalf("flash = %+v", m)
	}
	now = now.Add(6 * time.Second)
	if f.Get() != nil {
		t.Error("info flash should expire after 5s")
	}
	f.Err("bad")
	now = now.Add(9 * time.Second)
	if m := f.Get(); m == nil || m.Level != FlashErr {
		t.Errorf("error flash should last 10s, got %+v", m)
	}
}
