package wa

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	intsync "github.com/sudomakes/oneway/internal/sync"
)

func msgIDs(msgs []intsync.RemoteMessage) []string {
	var out []string
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestHistoryAddOrdersAndDedupes(t *testing.T) {
	h := NewHistory(10)
	h.Add("c", intsync.RemoteMessage{ID: "b", Timestamp: 20}, intsync.RemoteMessage{ID: "a", Timestamp: 10})
	h.Add("c", intsync.RemoteMessage{ID: "a", Timestamp: 10, Body: "dup"}, intsync.RemoteMessage{ID: "c", Timestamp: 15})

	got := h.Recent("c", 0)
	if diff := cmp.Diff([]string{"a", "c", "b"}, msgIDs(got)); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if got[0].Body != "" {
		t.Errorf("duplicate replaced original: %+v", got[0])
	}
}

func TestHistoryCapacityEvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for i := range 5 {
		h.Add("c", intsync.RemoteMessage{ID: fmt.Sprint(i), Timestamp: int64(i)})
	}
	if diff := cmp.Diff([]string{"2", "3", "4"}, msgIDs(h.Recent("c", 0))); diff != "" {
		t.Errorf("kept (-want +got):\n%s", diff)
	}
	// An evicted id can come back.
	h.Add("c", intsync.RemoteMessage{ID: "0", Timestamp: 10})
	if diff := cmp.Diff([]string{"3", "4", "0"}, msgIDs(h.Recent("c", 0))); diff != "" {
		t.Errorf("after re-add (-want +got):\n%s", diff)
	}
}

func TestHistoryRecentLimit(t *testing.T) {
	h := NewHistory(10)
	for i := range 5 {
		h.Add("c", intsync.RemoteMessage{ID: fmt.Sprint(i), Timestamp: int64(i)})
	}
	if diff := cmp.Diff([]string{"3", "4"}, msgIDs(h.Recent("c", 2))); diff != "" {
		t.Errorf("Recent(2) (-want +got):\n%s", diff)
	}
	if got := h.Recent("missing", 2); got != nil {
		t.Errorf("Recent(missing) = %v", got)
	}
	if h.Len() != 5 {
		t.Errorf("Len() = %d, want 5", h.Len())
	}
}

func TestHistoryObserve(t *testing.T) {
	h := NewHistory(10)
	h.Observe(intsync.RemoteChat{ID: "g@g.us", Name: "Family", IsGroup: true, LastActivity: 50})
	h.Observe(intsync.RemoteChat{ID: "g@g.us", LastActivity: 10})
	h.Observe(intsync.RemoteChat{ID: "p@s.whatsapp.net", Name: "Bob", LastActivity: 5})
	h.Add("p@s.whatsapp.net", intsync.RemoteMessage{ID: "m", Timestamp: 90})
	h.Observe(intsync.RemoteChat{ID: ""})

	want := []intsync.RemoteChat{
		{ID: "p@s.whatsapp.net", Name: "Bob", LastActivity: 90},
		{ID: "g@g.us", Name: "Family", IsGroup: true, LastActivity: 50},
	}
	if diff := cmp.Diff(want, h.Chats()); diff != "" {
		t.Errorf("chats (-want +got):\n%s", diff)
	}
}

func TestHistorySettle(t *testing.T) {
	h := NewHistory(10)
	h.Add("c", intsync.RemoteMessage{ID: "1", Timestamp: 1})

	start := time.Now()
	if err := h.Settle(context.Background(), 40*time.Millisecond, time.Second); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Settle returned after %v, before the buffer went quiet", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.Add("c", intsync.RemoteMessage{ID: "2", Timestamp: 2})
	if err := h.Settle(ctx, time.Minute, time.Hour); err == nil {
		t.Error("Settle with canceled context should fail")
	}
}
