package views

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/tview"
)

// cell prepares archived text for a single table cell: line breaks become
// spaces, codepoints tcell renders badly are dropped and tview color tags are
// escaped.
func cell(s string) string {
	return tview.Escape(sanitizeForTerminal(s))
}

// sanitizeForTerminal flattens s onto one line and strips runes that break
// tcell's cell width accounting: skin tone modifiers, zero width joiners,
// variation selectors and other control characters. A thumbs up with a skin
// tone becomes a plain thumbs up that occupies two cells.
func sanitizeForTerminal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		case isProblematicRune(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isProblematicRune(r rune) bool {
	switch {
	case r >= 0x1F3FB && r <= 0x1F3FF: // skin tone modifiers
		return true
	case r == 0x200D: // zero width joiner
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	case r == utf8.RuneError:
		return true
	default:
		return unicode.IsControl(r)
	}
}
