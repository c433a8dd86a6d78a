package progress

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// NameWidth is the display width chat names are cut to in progress output.
const NameWidth = 25

const clearLine = "\r\x1b[K"

// Console renders updates as a single self-overwriting terminal line, the
// blocking-mode presentation.
type Console struct {
	w     io.Writer
	count lipgloss.Style
	name  lipgloss.Style
	dim   lipgloss.Style
	ok    lipgloss.Style
	fail  lipgloss.Style
}

// NewConsole creates a console reporter writing to w. Colors are used only
// when w is a terminal.
func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:     w,
		count: r.NewStyle().Foreground(lipgloss.Color("6")),
		name:  r.NewStyle().Foreground(lipgloss.Color("7")),
		dim:   r.NewStyle().Foreground(lipgloss.Color("8")),
		ok:    r.NewStyle().Foreground(lipgloss.Color("2")),
		fail:  r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// Report writes u to the console.
func (c *Console) Report(u Update) {
	switch u.Phase {
	case Syncing:
		if u.TotalChats == 0 {
			_, _ = fmt.Fprintln(c.w, c.count.Render("Syncing messages and chats..."))
			return
		}
		name := runewidth.FillRight(DisplayName(u.ChatName, NameWidth), NameWidth)
		_, _ = fmt.Fprint(c.w, clearLine+
			c.count.Render(fmt.Sprintf("  [%d/%d] ", u.CurrentChat, u.TotalChats))+
			c.name.Render(name)+
			c.dim.Render(fmt.Sprintf(" | %d messages", u.MessagesSoFar)))
	case Done:
		_, _ = fmt.Fprint(c.w, clearLine)
		_, _ = fmt.Fprintln(c.w, c.ok.Render(fmt.Sprintf("  Synced %d messages from %d chats", u.MessagesSoFar, u.TotalChats)))
	case Error:
		_, _ = fmt.Fprint(c.w, clearLine)
		_, _ = fmt.Fprintln(c.w, c.fail.Render("  Sync failed: "+u.ErrorMessage))
	}
}

// DisplayName cuts name to width terminal cells, marking the cut with "...".
// Newlines are flattened so the name fits on one line.
func DisplayName(name string, width int) string {
	name = strings.Join(strings.Fields(name), " ")
	return runewidth.Truncate(name, width, "...")
}
