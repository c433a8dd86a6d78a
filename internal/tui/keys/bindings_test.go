package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/google/go-cmp/cmp"
)

func TestHandleEventPagePrecedence(t *testing.T) {
	r := NewRegistry()
	var got []string
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 's', Description: "s:search", Visible: true,
		Handler: func() { got = append(got, "global-s") }})
	r.AddGlobal(&Action{Key: tcell.KeyCtrlC, Description: "quit",
		Handler: func() { got = append(got, "quit") }})
	r.AddPage("compose", &Action{Key: tcell.KeyRune, Rune: 's', Description: "s:send", Visible: true,
		Handler: func() { got = append(got, "compose-s") }})

	tests := []struct {
		page string
		ev   *tcell.EventKey
		ok   bool
	}{
		{"chats", tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone), true},
		{"compose", tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone), true},
		{"compose", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), true},
		{"chats", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), false},
	}
	for _, tt := range tests {
		if ok := r.HandleEvent(tt.page, tt.ev); ok != tt.ok {
			t.Errorf("HandleEvent(%s, %v) = %v, want %v", tt.page, tt.ev.Name(), ok, tt.ok)
		}
	}

	want := []string{"global-s", "compose-s", "quit"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("handlers (-want +got):\n%s", diff)
	}
}

func TestHintsOrder(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Description: "q:quit", Visible: true})
	r.AddGlobal(&Action{Description: "hidden"})
	r.AddPage("chats", &Action{Description: "/:filter", Visible: true})
	r.AddPage("chats", &Action{Description: "enter:compose", Visible: true})

	want := []string{"/:filter", "enter:compose", "q:quit"}
	for range 3 {
		if diff := cmp.Diff(want, r.Hints("chats")); diff != "" {
			t.Fatalf("hints (-want +got):\n%s", diff)
		}
	}
	if diff := cmp.Diff([]string{"q:quit"}, r.Hints("search")); diff != "" {
		t.Errorf("search hints (-want +got):\n%s", diff)
	}
}
