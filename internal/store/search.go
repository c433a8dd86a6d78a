package store

import "strings"

// SearchMessages returns messages whose body contains query, newest first.
// Matching is case-insensitive for ASCII. A non-empty chatName restricts
// results to messages stored under that display name.
func (db *DB) SearchMessages(query, chatName string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	q := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE body LIKE ? ESCAPE '\'`
	args := []any{likePattern(query)}
	if chatName != "" {
		q += " AND chat_name = ?"
		args = append(args, chatName)
	}
	q += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	return db.queryMessages(q, args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps s for a substring LIKE match with wildcards escaped.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
