package store

import (
	"database/sql"
	"fmt"
)

const messageColumns = `id, chat_id, chat_name, body, timestamp, from_me, is_group`

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// InsertMessageIfAbsent stores m unless a message with the same id exists.
// An existing row is never overwritten. It reports whether a row was written.
func (db *DB) InsertMessageIfAbsent(m *Message) (bool, error) {
	return insertMessage(db, m)
}

// InsertMessages inserts msgs with insert-if-absent semantics in a single
// transaction and returns how many rows were new.
func (db *DB) InsertMessages(msgs []*Message) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, m := range msgs {
		ok, err := insertMessage(tx, m)
		if err != nil {
			return 0, fmt.Errorf("insert message %q: %w", m.ID, err)
		}
		if ok {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func insertMessage(ex execer, m *Message) (bool, error) {
	res, err := ex.Exec(`
		INSERT INTO messages (id, chat_id, chat_name, body, timestamp, from_me, is_group)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		m.ID, m.ChatID, m.ChatName, m.Body, m.Timestamp, m.FromMe, m.IsGroup)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetMessage returns a message by id, or nil if absent.
func (db *DB) GetMessage(id string) (*Message, error) {
	return scanMessage(db.QueryRow(`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id))
}

// ListMessagesByChatID returns the newest messages stored under chatID.
func (db *DB) ListMessagesByChatID(chatID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	return db.queryMessages(`
		SELECT `+messageColumns+`
		FROM messages
		WHERE chat_id = ?
		ORDER BY timestamp DESC
		LIMIT ?`, chatID, limit)
}

// MessageCount returns the total number of messages.
func (db *DB) MessageCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// LatestMessageTimestamp returns the maximum message timestamp. ok is false
// when the archive holds no messages.
func (db *DB) LatestMessageTimestamp() (ts int64, ok bool, err error) {
	var latest sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(timestamp) FROM messages`).Scan(&latest); err != nil {
		return 0, false, err
	}
	return latest.Int64, latest.Valid, nil
}

// LastSentMessage returns the most recent self-authored message stored under
// chatName, or nil if there is none.
func (db *DB) LastSentMessage(chatName string) (*Message, error) {
	return scanMessage(db.QueryRow(`
		SELECT `+messageColumns+`
		FROM messages
		WHERE chat_name = ? AND from_me = 1
		ORDER BY timestamp DESC
		LIMIT 1`, chatName))
}

// Stats returns chat and message counts.
func (db *DB) Stats() (*Stats, error) {
	var s Stats
	err := db.QueryRow(`SELECT (SELECT COUNT(*) FROM chats), (SELECT COUNT(*) FROM messages)`).
		Scan(&s.Chats, &s.Messages)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) queryMessages(query string, args ...any) ([]Message, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.ChatName, &m.Body, &m.Timestamp, &m.FromMe, &m.IsGroup); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func scanMessage(row *sql.Row) (*Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.ChatID, &m.ChatName, &m.Body, &m.Timestamp, &m.FromMe, &m.IsGroup)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
