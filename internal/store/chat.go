package store

import (
	"database/sql"
	"time"
)

const chatColumns = `id, name, is_group, last_message_time, unread_count`

// UpsertChat writes a chat keyed by id, replacing every sync-owned column.
// unread_count is store-managed and survives the replace.
func (db *DB) UpsertChat(c *Chat) error {
	_, err := db.Exec(`
		INSERT INTO chats (id, name, is_group, last_message_time, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			is_group = excluded.is_group,
			last_message_time = excluded.last_message_time,
			updated_at = excluded.updated_at`,
		c.ID, c.Name, c.IsGroup, c.LastMessageTime, time.Now().Unix())
	return err
}

// GetChat returns a chat by id, or nil if absent.
func (db *DB) GetChat(id string) (*Chat, error) {
	return scanChat(db.QueryRow(`SELECT `+chatColumns+` FROM chats WHERE id = ?`, id))
}

// GetChatByName returns the first chat with the exact name and group flag,
// or nil if none. Several chats may share a name; which one wins is
// unspecified beyond "most recently active first".
func (db *DB) GetChatByName(name string, isGroup bool) (*Chat, error) {
	return scanChat(db.QueryRow(`
		SELECT `+chatColumns+`
		FROM chats
		WHERE name = ? AND is_group = ?
		ORDER BY last_message_time DESC
		LIMIT 1`, name, isGroup))
}

// ListChats returns chats ordered by most recent activity.
func (db *DB) ListChats(limit int) ([]Chat, error) {
	if limit <= 0 {
		limit = defaultChatLimit
	}
	return db.queryChats(`
		SELECT `+chatColumns+`
		FROM chats
		ORDER BY last_message_time DESC
		LIMIT ?`, limit)
}

// SearchChats returns chats whose name contains query, case-insensitively,
// ordered by most recent activity.
func (db *DB) SearchChats(query string, limit int) ([]Chat, error) {
	if limit <= 0 {
		limit = defaultChatLimit
	}
	return db.queryChats(`
		SELECT `+chatColumns+`
		FROM chats
		WHERE name LIKE ? ESCAPE '\'
		ORDER BY last_message_time DESC
		LIMIT ?`, likePattern(query), limit)
}

// ChatCount returns the total number of chats.
func (db *DB) ChatCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM chats`).Scan(&count)
	return count, err
}

func (db *DB) queryChats(query string, args ...any) ([]Chat, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chats []Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.Name, &c.IsGroup, &c.LastMessageTime, &c.UnreadCount); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

func scanChat(row *sql.Row) (*Chat, error) {
	var c Chat
	err := row.Scan(&c.ID, &c.Name, &c.IsGroup, &c.LastMessageTime, &c.UnreadCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
