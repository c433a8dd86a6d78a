package store

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func ids(msgs []Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 2 {
		t.Errorf("version = %d, want 2 (init + last sent index)", result.Version)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Error("Open(blank) should fail")
	}
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "archive.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()
	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
}

func TestUpsertChatOverwritesRow(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertChat(&Chat{ID: "c1", Name: "A", LastMessageTime: 5}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertChat(&Chat{ID: "c1", Name: "B", LastMessageTime: 9}); err != nil {
		t.Fatal(err)
	}

	count, err := db.ChatCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("chat count = %d, want 1", count)
	}
	c, err := db.GetChat("c1")
	if err != nil {
		t.Fatal(err)
	}
	want := &Chat{ID: "c1", Name: "B", LastMessageTime: 9}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("GetChat mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertChatKeepsUnreadCount(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertChat(&Chat{ID: "c1", Name: "A"}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`UPDATE chats SET unread_count = 3 WHERE id = 'c1'`); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertChat(&Chat{ID: "c1", Name: "A2", IsGroup: true, LastMessageTime: 7}); err != nil {
		t.Fatal(err)
	}

	c, err := db.GetChat("c1")
	if err != nil {
		t.Fatal(err)
	}
	if c.UnreadCount != 3 {
		t.Errorf("unread_count = %d, want 3 (store-managed)", c.UnreadCount)
	}
	if !c.IsGroup || c.Name != "A2" {
		t.Errorf("got %+v, want overwritten name and group flag", c)
	}
}

func TestGetChatMissing(t *testing.T) {
	db := testDB(t)

	c, err := db.GetChat("missing")
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Errorf("expected nil for missing chat, got %+v", c)
	}
}

func TestGetChatByName(t *testing.T) {
	db := testDB(t)

	chats := []*Chat{
		{ID: "g1", Name: "Family", IsGroup: true, LastMessageTime: 10},
		{ID: "u1", Name: "Family", IsGroup: false, LastMessageTime: 20},
		{ID: "u2", Name: "Alice", LastMessageTime: 30},
	}
	for _, c := range chats {
		if err := db.UpsertChat(c); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		chat    string
		isGroup bool
		wantID  string
	}{
		{"group match", "Family", true, "g1"},
		{"individual match", "Family", false, "u1"},
		{"group flag mismatch", "Alice", true, ""},
		{"case sensitive", "alice", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := db.GetChatByName(tt.chat, tt.isGroup)
			if err != nil {
				t.Fatal(err)
			}
			got := ""
			if c != nil {
				got = c.ID
			}
			if got != tt.wantID {
				t.Errorf("GetChatByName(%q, %v) = %q, want %q", tt.chat, tt.isGroup, got, tt.wantID)
			}
		})
	}
}

func TestListAndSearchChatsOrderedByRecency(t *testing.T) {
	db := testDB(t)

	for _, c := range []*Chat{
		{ID: "a", Name: "Project Alpha", LastMessageTime: 100},
		{ID: "b", Name: "Bob", LastMessageTime: 300},
		{ID: "c", Name: "project beta", LastMessageTime: 200},
	} {
		if err := db.UpsertChat(c); err != nil {
			t.Fatal(err)
		}
	}

	all, err := db.ListChats(0)
	if err != nil {
		t.Fatal(err)
	}
	var gotAll []string
	for _, c := range all {
		gotAll = append(gotAll, c.ID)
	}
	if diff := cmp.Diff([]string{"b", "c", "a"}, gotAll); diff != "" {
		t.Errorf("ListChats order (-want +got):\n%s", diff)
	}

	found, err := db.SearchChats("PROJECT", 10)
	if err != nil {
		t.Fatal(err)
	}
	var gotFound []string
	for _, c := range found {
		gotFound = append(gotFound, c.ID)
	}
	if diff := cmp.Diff([]string{"c", "a"}, gotFound); diff != "" {
		t.Errorf("SearchChats (-want +got):\n%s", diff)
	}

	limited, err := db.ListChats(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("ListChats(1) returned %d chats", len(limited))
	}
}

func TestInsertMessageIfAbsentNeverOverwrites(t *testing.T) {
	db := testDB(t)

	m := &Message{ID: "m1", ChatID: "c1", ChatName: "A", Body: "first", Timestamp: 1000}
	ok, err := db.InsertMessageIfAbsent(m)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("first insert should report a new row")
	}

	dup := *m
	dup.Body = "second"
	ok, err = db.InsertMessageIfAbsent(&dup)
	if err != nil {
		t.Fatalf("duplicate insert must not error: %v", err)
	}
	if ok {
		t.Error("duplicate insert should report no new row")
	}

	got, err := db.GetMessage("m1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Body != "first" {
		t.Errorf("body = %q, want first (insert-if-absent)", got.Body)
	}
	count, _ := db.MessageCount()
	if count != 1 {
		t.Errorf("message count = %d, want 1", count)
	}
}

func TestInsertMessagesCountsOnlyNewRows(t *testing.T) {
	db := testDB(t)

	batch := []*Message{
		{ID: "m1", ChatID: "c", Body: "", Timestamp: 1},
		{ID: "m2", ChatID: "c", Body: "b", Timestamp: 2},
	}
	n, err := db.InsertMessages(batch)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}

	batch = append(batch, &Message{ID: "m3", ChatID: "c", Body: "c", Timestamp: 3})
	n, err = db.InsertMessages(batch)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("inserted on overlap = %d, want 1", n)
	}

	n, err = db.InsertMessages(nil)
	if err != nil || n != 0 {
		t.Errorf("InsertMessages(nil) = %d, %v; want 0, nil", n, err)
	}
}

func TestLatestMessageTimestamp(t *testing.T) {
	db := testDB(t)

	_, ok, err := db.LatestMessageTimestamp()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("empty archive should report no latest timestamp")
	}

	for i, ts := range []int64{500, 1500, 900} {
		m := &Message{ID: string(rune('a' + i)), ChatID: "c", Timestamp: ts}
		if _, err := db.InsertMessageIfAbsent(m); err != nil {
			t.Fatal(err)
		}
	}
	ts, ok, err := db.LatestMessageTimestamp()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || ts != 1500 {
		t.Errorf("latest = %d (ok=%v), want 1500", ts, ok)
	}
}

func TestLastSentMessage(t *testing.T) {
	db := testDB(t)

	for _, m := range []*Message{
		{ID: "1", ChatName: "Alice", Body: "old mine", Timestamp: 10, FromMe: true},
		{ID: "2", ChatName: "Alice", Body: "new mine", Timestamp: 30, FromMe: true},
		{ID: "3", ChatName: "Alice", Body: "theirs", Timestamp: 40},
		{ID: "4", ChatName: "Bob", Body: "bob mine", Timestamp: 50, FromMe: true},
	} {
		if _, err := db.InsertMessageIfAbsent(m); err != nil {
			t.Fatal(err)
		}
	}

	got, err := db.LastSentMessage("Alice")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != "2" {
		t.Errorf("LastSentMessage(Alice) = %+v, want id 2", got)
	}

	got, err = db.LastSentMessage("Nobody")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("LastSentMessage(Nobody) = %+v, want nil", got)
	}
}

func TestSearchMessagesScoping(t *testing.T) {
	db := testDB(t)

	for _, m := range []*Message{
		{ID: "a1", ChatName: "A", Body: "foo one", Timestamp: 1},
		{ID: "a2", ChatName: "A", Body: "bar", Timestamp: 2},
		{ID: "b1", ChatName: "B", Body: "say FOO", Timestamp: 3},
	} {
		if _, err := db.InsertMessageIfAbsent(m); err != nil {
			t.Fatal(err)
		}
	}

	all, err := db.SearchMessages("foo", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b1", "a1"}, ids(all)); diff != "" {
		t.Errorf("search all (-want +got):\n%s", diff)
	}

	scoped, err := db.SearchMessages("foo", "A", 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a1"}, ids(scoped)); diff != "" {
		t.Errorf("search in A (-want +got):\n%s", diff)
	}
}

func TestSearchMessagesEscapesWildcards(t *testing.T) {
	db := testDB(t)

	for _, m := range []*Message{
		{ID: "p", Body: "100% sure", Timestamp: 1},
		{ID: "q", Body: "1000 sure", Timestamp: 2},
		{ID: "u", Body: "snake_case", Timestamp: 3},
		{ID: "v", Body: "snakeXcase", Timestamp: 4},
	} {
		if _, err := db.InsertMessageIfAbsent(m); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"0%", []string{"p"}},
		{"e_c", []string{"u"}},
		{"sure", []string{"q", "p"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := db.SearchMessages(tt.query, "", 10)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("SearchMessages(%q) (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestSearchMessagesRespectsLimit(t *testing.T) {
	db := testDB(t)

	for i := 0; i < 30; i++ {
		m := &Message{ID: string(rune('A' + i)), Body: "hit", Timestamp: int64(i)}
		if _, err := db.InsertMessageIfAbsent(m); err != nil {
			t.Fatal(err)
		}
	}
	got, err := db.SearchMessages("hit", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != defaultSearchLimit {
		t.Errorf("default limit returned %d rows, want %d", len(got), defaultSearchLimit)
	}
	if got[0].Timestamp != 29 {
		t.Errorf("first result timestamp = %d, want newest (29)", got[0].Timestamp)
	}
}

func TestConcurrentReadsDuringWrites(t *testing.T) {
	db := testDB(t)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			batch := []*Message{{ID: string(rune(0x4e00 + i)), Body: "concurrent", Timestamp: int64(i)}}
			if _, err := db.InsertMessages(batch); err != nil {
				t.Errorf("writer: %v", err)
				return
			}
		}
	}()

	for i := 0; i < 50; i++ {
		if _, err := db.SearchMessages("concurrent", "", 100); err != nil {
			t.Fatalf("reader: %v", err)
		}
	}
	wg.Wait()

	count, err := db.MessageCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 50 {
		t.Errorf("message count = %d, want 50", count)
	}
}

func TestStats(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertChat(&Chat{ID: "c", Name: "C"}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.InsertMessageIfAbsent(&Message{ID: "m", ChatID: "c", Timestamp: 1}); err != nil {
		t.Fatal(err)
	}
	s, err := db.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&Stats{Chats: 1, Messages: 1}, s); diff != "" {
		t.Errorf("Stats (-want +got):\n%s", diff)
	}
}
