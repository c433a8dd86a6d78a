package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sudomakes/oneway/internal/query"
	"github.com/sudomakes/oneway/internal/store"
	"github.com/sudomakes/oneway/internal/tui/ui"
)

const lastSentPreviewWidth = 200

// Composer writes one message to the active chat. It shows the last message
// sent there and the suffix that will be appended.
type Composer struct {
	*tview.Flex
	theme   *ui.Theme
	info    *tview.TextView
	input   *tview.InputField
	suffix  string
	onSend  func(text string)
	sending bool
}

// NewComposer creates the compose view. suffix is shown as a reminder only;
// the sender applies it.
func NewComposer(theme *ui.Theme, suffix string) *Composer {
	info := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)
	info.SetBorder(true)
	info.SetBorderColor(theme.BorderColor)
	info.SetBackgroundColor(theme.BgColor)
	info.SetTextColor(theme.FgColor)
	info.SetTitleColor(theme.TitleColor)

	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.KeyColor)

	c := &Composer{
		Flex: tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(info, 0, 1, false).
			AddItem(input, 1, 0, true),
		theme:  theme,
		info:   info,
		input:  input,
		suffix: suffix,
	}

	input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || c.onSend == nil || c.sending {
			return
		}
		text := c.input.GetText()
		if strings.TrimSpace(text) == "" {
			return
		}
		c.onSend(text)
	})
	return c
}

// SetOnSend sets the callback run when Enter is pressed with text.
func (c *Composer) SetOnSend(fn func(text string)) {
	c.onSend = fn
}

// SetSending locks the input while a send is in flight.
func (c *Composer) SetSending(sending bool) {
	c.sending = sending
	if sending {
		c.input.SetLabel(" … ")
	} else {
		c.input.SetLabel(" > ")
	}
}

// Clear empties the input after a successful send.
func (c *Composer) Clear() {
	c.input.SetText("")
}

// Update renders the header for chat and its last sent message.
func (c *Composer) Update(chat *store.Chat, last *store.Message) {
	c.info.Clear()
	if chat == nil {
		c.info.SetTitle(" Compose ")
		return
	}
	c.info.SetTitle(fmt.Sprintf(" Compose: %s ", cell(chat.Name)))

	muted := ui.Tag(c.theme.MutedColor)
	_, _ = fmt.Fprintf(c.info, "%sTo:[-] %s %s(%s)[-]\n\n", muted, cell(chat.Name), muted, cell(chat.ID))

	_, _ = fmt.Fprintf(c.info, "%sLast sent:[-] ", muted)
	if last == nil {
		_, _ = fmt.Fprintf(c.info, "%snothing yet[-]\n", muted)
	} else {
		_, _ = fmt.Fprintf(c.info, "%s\n  %s\n",
			query.FormatTimestamp(last.Timestamp),
			cell(query.Preview(last.Body, lastSentPreviewWidth)))
	}

	if c.suffix != "" {
		_, _ = fmt.Fprintf(c.info, "\n%sSuffix:[-] %s%s[-]\n", muted, muted, cell(c.suffix))
	}
}

// Input returns the text field.
func (c *Composer) Input() *tview.InputField {
	return c.input
}

// Info returns the header text.
func (c *Composer) Info() *tview.TextView {
	return c.info
}
