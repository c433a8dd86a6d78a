package views

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sudomakes/oneway/internal/query"
	"github.com/sudomakes/oneway/internal/store"
	"github.com/sudomakes/oneway/internal/tui/ui"
)

const snippetWidth = 120

// SearchView searches the archive, either everywhere or within one chat.
type SearchView struct {
	*tview.Flex
	theme   *ui.Theme
	input   *tview.InputField
	results *tview.Table
	scope   string
	now     func() time.Time
	onQuery func(query, chatName string)
	onOpen  func(m store.Message)
	data    []store.Message
}

// NewSearchView creates a new search view.
func NewSearchView(theme *ui.Theme) *SearchView {
	input := tview.NewInputField().
		SetFieldWidth(0)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.KeyColor)

	results := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	results.SetBorder(true)
	results.SetBorderColor(theme.BorderColor)
	results.SetBackgroundColor(theme.BgColor)
	results.SetTitle(" Results ")
	results.SetTitleColor(theme.TitleColor)
	results.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	sv := &SearchView{
		Flex: tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(input, 1, 0, true).
			AddItem(results, 0, 1, false),
		theme:   theme,
		input:   input,
		results: results,
		now:     time.Now,
	}
	sv.SetScope("")

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && sv.onQuery != nil {
			sv.onQuery(sv.input.GetText(), sv.scope)
		}
	})
	results.SetSelectedFunc(func(row, _ int) {
		idx := row - 1
		if idx >= 0 && idx < len(sv.data) && sv.onOpen != nil {
			sv.onOpen(sv.data[idx])
		}
	})
	return sv
}

// SetOnQuery sets the callback run when a query is submitted.
func (sv *SearchView) SetOnQuery(fn func(query, chatName string)) {
	sv.onQuery = fn
}

// SetOnOpen sets the callback run when Enter is pressed on a result.
func (sv *SearchView) SetOnOpen(fn func(m store.Message)) {
	sv.onOpen = fn
}

// SetScope restricts the next query to chatName, or to every chat when empty.
func (sv *SearchView) SetScope(chatName string) {
	sv.scope = chatName
	if chatName == "" {
		sv.input.SetLabel(" Search all: ")
		return
	}
	sv.input.SetLabel(fmt.Sprintf(" Search %s: ", cell(chatName)))
}

// Scope returns the chat the search is restricted to, if any.
func (sv *SearchView) Scope() string {
	return sv.scope
}

// Update renders results for q, highlighting the matched text.
func (sv *SearchView) Update(results []store.Message, q string) {
	sv.data = results
	sv.results.Clear()
	sv.results.SetTitle(fmt.Sprintf(" Results [%d] ", len(results)))

	for col, h := range []string{" CHAT", " MESSAGE", " TIME"} {
		sv.results.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(sv.theme.TableHeaderFg).
			SetAttributes(tcell.AttrBold))
	}

	now := sv.now()
	for i, m := range results {
		row := i + 1
		chat := m.ChatName
		if m.FromMe {
			chat = "→ " + chat
		}
		snippet := highlight(query.Preview(m.Body, snippetWidth), q, sv.theme)
		sv.results.SetCell(row, 0, tview.NewTableCell(" "+cell(chat)).SetMaxWidth(25).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(row, 1, tview.NewTableCell(" "+snippet).SetExpansion(1).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(row, 2, tview.NewTableCell(" "+query.ShortDate(m.Timestamp, now)).SetTextColor(sv.theme.MutedColor))
	}
}

// highlight escapes text for a cell and colors each case-insensitive match
// of q.
func highlight(text, q string, theme *ui.Theme) string {
	if q == "" {
		return cell(text)
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(q))
	open := ui.Tag(theme.HighlightColor)
	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		b.WriteString(cell(text[last:loc[0]]))
		b.WriteString(open)
		b.WriteString(cell(text[loc[0]:loc[1]]))
		b.WriteString("[-]")
		last = loc[1]
	}
	b.WriteString(cell(text[last:]))
	return b.String()
}

// Input returns the search input field.
func (sv *SearchView) Input() *tview.InputField {
	return sv.input
}

// Results returns the results table.
func (sv *SearchView) Results() *tview.Table {
	return sv.results
}
