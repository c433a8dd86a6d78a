package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sudomakes/oneway/internal/query"
	"github.com/sudomakes/oneway/internal/store"
	"github.com/sudomakes/oneway/internal/tui/ui"
)

// ChatList is the archived chat table with a name filter above it.
type ChatList struct {
	*tview.Flex
	theme    *ui.Theme
	filter   *tview.InputField
	table    *tview.Table
	chats    []store.Chat
	now      func() time.Time
	onSelect func(chat store.Chat)
	onFilter func(text string)
}

// NewChatList creates the chat list view.
func NewChatList(theme *ui.Theme) *ChatList {
	filter := tview.NewInputField().
		SetLabel(" / ").
		SetFieldWidth(0).
		SetPlaceholder("filter by name")
	filter.SetBackgroundColor(theme.BgColor)
	filter.SetFieldBackgroundColor(theme.BgColor)
	filter.SetFieldTextColor(theme.FgColor)
	filter.SetLabelColor(theme.KeyColor)

	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetTitleColor(theme.TitleColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	cl := &ChatList{
		Flex: tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(table, 0, 1, true).
			AddItem(filter, 1, 0, false),
		theme:  theme,
		filter: filter,
		table:  table,
		now:    time.Now,
	}

	table.SetSelectedFunc(func(row, _ int) {
		if chat, ok := cl.chatAt(row); ok && cl.onSelect != nil {
			cl.onSelect(chat)
		}
	})
	filter.SetChangedFunc(func(text string) {
		if cl.onFilter != nil {
			cl.onFilter(text)
		}
	})
	return cl
}

// SetOnSelect sets the callback run when Enter is pressed on a chat.
func (cl *ChatList) SetOnSelect(fn func(chat store.Chat)) {
	cl.onSelect = fn
}

// SetOnFilter sets the callback run whenever the filter text changes.
func (cl *ChatList) SetOnFilter(fn func(text string)) {
	cl.onFilter = fn
}

// Update replaces the table contents with chats.
func (cl *ChatList) Update(chats []store.Chat) {
	cl.chats = chats
	cl.table.Clear()
	cl.table.SetTitle(fmt.Sprintf(" Chats [%d] ", len(chats)))

	for col, h := range []string{" NAME", " TYPE", " LAST ACTIVITY"} {
		cl.table.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetAttributes(tcell.AttrBold))
	}

	now := cl.now()
	for i, chat := range chats {
		row := i + 1
		name := chat.Name
		if name == "" {
			name = chat.ID
		}
		if chat.UnreadCount > 0 {
			name = fmt.Sprintf("%s (%d)", name, chat.UnreadCount)
		}
		kind := "contact"
		if chat.IsGroup {
			kind = "group"
		}
		last := ""
		if chat.LastMessageTime > 0 {
			last = query.ShortDate(chat.LastMessageTime, now)
		}
		cl.table.SetCell(row, 0, tview.NewTableCell(" "+cell(name)).SetMaxWidth(40).SetExpansion(1).SetTextColor(cl.theme.FgColor))
		cl.table.SetCell(row, 1, tview.NewTableCell(" "+kind).SetTextColor(cl.theme.MutedColor))
		cl.table.SetCell(row, 2, tview.NewTableCell(" "+last).SetTextColor(cl.theme.FgColor))
	}
	if len(chats) > 0 {
		cl.table.Select(1, 0)
	}
}

func (cl *ChatList) chatAt(row int) (store.Chat, bool) {
	idx := row - 1 // header
	if idx < 0 || idx >= len(cl.chats) {
		return store.Chat{}, false
	}
	return cl.chats[idx], true
}

// SelectedChat returns the chat under the cursor.
func (cl *ChatList) SelectedChat() (store.Chat, bool) {
	row, _ := cl.table.GetSelection()
	return cl.chatAt(row)
}

// Table returns the chat table.
func (cl *ChatList) Table() *tview.Table {
	return cl.table
}

// Filter returns the filter input.
func (cl *ChatList) Filter() *tview.InputField {
	return cl.filter
}
