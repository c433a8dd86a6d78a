package query

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/sudomakes/oneway/internal/store"
)

const resultPreviewWidth = 100

// Preview flattens body onto one line and cuts it to max cells with "...".
func Preview(body string, max int) string {
	line := strings.TrimSpace(strings.ReplaceAll(body, "\n", " "))
	return runewidth.Truncate(line, max, "...")
}

// Highlight wraps every case-insensitive occurrence of query in text with
// "**".
func Highlight(text, query string) string {
	if query == "" {
		return text
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
	return re.ReplaceAllStringFunc(text, func(m string) string {
		return "**" + m + "**"
	})
}

// FormatTimestamp renders epoch seconds in local time.
func FormatTimestamp(ts int64) string {
	return time.Unix(ts, 0).Local().Format("2006-01-02 15:04")
}

// ShortDate renders ts relative to now the way a chat list does: a clock
// time today, "Yesterday", a weekday within the week, else a date.
func ShortDate(ts int64, now time.Time) string {
	t := time.Unix(ts, 0).In(now.Location())
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch {
	case !t.Before(today):
		return t.Format("15:04")
	case !t.Before(today.AddDate(0, 0, -1)):
		return "Yesterday"
	case !t.Before(today.AddDate(0, 0, -6)):
		return t.Format("Mon")
	default:
		return t.Format("Jan 2")
	}
}

// FormatResult renders a search hit as two lines: timestamp and chat, then
// the body preview.
func FormatResult(m store.Message) string {
	body := m.Body
	if runewidth.StringWidth(body) > resultPreviewWidth {
		body = runewidth.Truncate(body, resultPreviewWidth, "") + "..."
	}
	return fmt.Sprintf("[%s] %s\n  %s", FormatTimestamp(m.Timestamp), m.ChatName, body)
}
