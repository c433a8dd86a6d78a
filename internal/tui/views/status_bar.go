package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sudomakes/oneway/internal/progress"
	"github.com/sudomakes/oneway/internal/status"
	"github.com/sudomakes/oneway/internal/store"
	"github.com/sudomakes/oneway/internal/tui/model"
	"github.com/sudomakes/oneway/internal/tui/ui"
)

// StatusBar is the bottom line: session state, sync progress, archive size,
// key hints and the current flash message.
type StatusBar struct {
	*tview.TextView
	theme *ui.Theme
	now   func() time.Time
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.StatusBarBg)
	tv.SetTextColor(theme.FgColor)

	return &StatusBar{TextView: tv, theme: theme, now: time.Now}
}

// StatusLine holds everything the bar renders.
type StatusLine struct {
	Session  status.State
	Progress progress.Update
	Stats    store.Stats
	Hints    []string
	Flash    *model.FlashMessage
}

// Update re-renders the bar.
func (sb *StatusBar) Update(line StatusLine) {
	sb.Clear()
	_, _ = fmt.Fprint(sb, sb.render(line))
}

func (sb *StatusBar) render(line StatusLine) string {
	var b strings.Builder

	session := line.Session
	if session == "" {
		session = status.Offline
	}
	fmt.Fprintf(&b, " %s%s[-]", ui.Tag(sb.theme.SessionColor(session)), session)

	if line.Progress.Phase != "" && line.Progress.Phase != progress.Idle {
		fmt.Fprintf(&b, " | %s%s[-]", ui.Tag(sb.theme.PhaseColor(line.Progress.Phase)), tview.Escape(line.Progress.String()))
	}
	fmt.Fprintf(&b, " | %d chats, %d msgs", line.Stats.Chats, line.Stats.Messages)

	if len(line.Hints) > 0 {
		fmt.Fprintf(&b, " | %s%s[-]", ui.Tag(sb.theme.KeyColor), tview.Escape(strings.Join(line.Hints, " ")))
	}
	if line.Flash != nil {
		fmt.Fprintf(&b, " | %s%s[-]", ui.Tag(sb.flashColor(line.Flash.Level)), tview.Escape(line.Flash.Text))
	}
	fmt.Fprintf(&b, " | %s", sb.now().Format("15:04"))
	return b.String()
}

func (sb *StatusBar) flashColor(level model.FlashLevel) tcell.Color {
	switch level {
	case model.FlashWarn:
		return sb.theme.WarnColor
	case model.FlashErr:
		return sb.theme.ErrColor
	default:
		return sb.theme.HighlightColor
	}
}
