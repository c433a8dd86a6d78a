package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sudomakes/oneway/internal/bus"
	"go.uber.org/zap"
)

type recorder struct {
	updates []Update
}

func (r *recorder) Report(u Update) { r.updates = append(r.updates, u) }

func (r *recorder) phases() []Phase {
	var out []Phase
	for _, u := range r.updates {
		out = append(out, u.Phase)
	}
	return out
}

func TestMachineValidSequences(t *testing.T) {
	tests := []struct {
		name string
		seq  []Phase
		want []Phase
	}{
		{"syncing then done", []Phase{Syncing, Syncing, Done}, []Phase{Syncing, Syncing, Done}},
		{"immediate error", []Phase{Error}, []Phase{Error}},
		{"updates after done dropped", []Phase{Syncing, Done, Syncing, Error}, []Phase{Syncing, Done}},
		{"second terminal dropped", []Phase{Syncing, Error, Done}, []Phase{Syncing, Error}},
		{"done without syncing dropped", []Phase{Done, Syncing, Done}, []Phase{Syncing, Done}},
		{"idle never forwarded", []Phase{Idle, Syncing, Done}, []Phase{Syncing, Done}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			m := NewMachine(rec)
			for _, p := range tt.seq {
				m.Report(Update{Phase: p})
			}
			if diff := cmp.Diff(tt.want, rec.phases()); diff != "" {
				t.Errorf("forwarded phases (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMachineTransitionErrors(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Idle {
		t.Fatalf("initial phase = %s, want idle", m.Current())
	}
	if err := m.Transition(Done); err == nil {
		t.Error("idle -> done should fail")
	}
	if err := m.Transition(Syncing); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(Done); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(Syncing); err == nil {
		t.Error("done -> syncing should fail")
	}
}

func TestSafeRecoversPanics(t *testing.T) {
	calls := 0
	r := Safe(Func(func(Update) {
		calls++
		panic("ui bug")
	}), zap.NewNop())

	r.Report(Update{Phase: Syncing})
	r.Report(Update{Phase: Done})
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (reporter keeps receiving after panic)", calls)
	}
}

func TestMultiFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	r := Multi(a, nil, b)
	r.Report(Update{Phase: Syncing})
	if len(a.updates) != 1 || len(b.updates) != 1 {
		t.Errorf("got %d and %d updates, want 1 each", len(a.updates), len(b.updates))
	}
	if _, ok := Multi().(Nop); !ok {
		t.Error("Multi() with no reporters should be Nop")
	}
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Report(Update{Phase: Syncing})
	c.Report(Update{Phase: Syncing, CurrentChat: 2, TotalChats: 3, MessagesSoFar: 7, ChatName: "Family Group"})
	c.Report(Update{Phase: Done, TotalChats: 3, MessagesSoFar: 9})

	out := buf.String()
	for _, want := range []string{
		"Syncing messages and chats...",
		"[2/3]",
		"Family Group",
		"| 7 messages",
		clearLine,
		"Synced 9 messages from 3 chats",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%q", want, out)
		}
	}
}

func TestConsoleError(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).Report(Update{Phase: Error, ErrorMessage: "not connected"})
	if !strings.Contains(buf.String(), "Sync failed: not connected") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"short", "Alice", 25, "Alice"},
		{"exact", "abcde", 5, "abcde"},
		{"cut", "A very long group chat name indeed", 25, "A very long group chat..."},
		{"newlines flattened", "Line\none", 25, "Line one"},
		{"wide runes", "日本語のグループ", 8, "日本..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayName(tt.in, tt.width); got != tt.want {
				t.Errorf("DisplayName(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestBusReporterKinds(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("sync.", 10)
	defer unsub()

	r := NewBusReporter(b)
	r.Report(Update{Phase: Syncing, CurrentChat: 1, TotalChats: 1})
	r.Report(Update{Phase: Done, TotalChats: 1, MessagesSoFar: 4})

	wantKinds := []string{KindSyncProgress, KindSyncDone}
	for _, want := range wantKinds {
		select {
		case evt := <-ch:
			if evt.Kind != want {
				t.Errorf("kind = %q, want %q", evt.Kind, want)
			}
			u, ok := FromEvent(evt)
			if !ok {
				t.Fatalf("payload %T is not an Update", evt.Payload)
			}
			if want == KindSyncDone && u.MessagesSoFar != 4 {
				t.Errorf("done messages = %d, want 4", u.MessagesSoFar)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %s", want)
		}
	}
}

func TestUpdateString(t *testing.T) {
	tests := []struct {
		u    Update
		want string
	}{
		{Update{Phase: Syncing}, "syncing"},
		{Update{Phase: Syncing, CurrentChat: 1, TotalChats: 2, ChatName: "A", MessagesSoFar: 3}, "syncing 1/2 A (3 messages)"},
		{Update{Phase: Done, TotalChats: 2, MessagesSoFar: 3}, "synced 3 messages from 2 chats"},
		{Update{Phase: Error, ErrorMessage: "boom"}, "sync failed: boom"},
	}
	for _, tt := range tests {
		if got := tt.u.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		if tt.u.Terminal() != (tt.u.Phase == Done || tt.u.Phase == Error) {
			t.Errorf("Terminal() wrong for %s", tt.u.Phase)
		}
	}
}
