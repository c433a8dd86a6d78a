package ui

import "github.com/rivo/tview"

// Page names.
const (
	PageChats   = "chats"
	PageCompose = "compose"
	PageSearch  = "search"
)

// Pages is a navigation stack over tview.Pages. The bottom page is the root
// and is never popped.
type Pages struct {
	*tview.Pages
	stack    []string
	onChange func(current string)
}

// NewPages creates a stack rooted at nothing; call Reset to set the root.
func NewPages() *Pages {
	return &Pages{Pages: tview.NewPages()}
}

// SetOnChange sets a callback fired with the new top page after every move.
func (p *Pages) SetOnChange(fn func(current string)) {
	p.onChange = fn
}

// Push shows name on top of the stack. Pushing the current page is a no-op.
func (p *Pages) Push(name string) {
	if p.Current() == name {
		return
	}
	p.stack = append(p.stack, name)
	p.SwitchToPage(name)
	p.notify()
}

// Back pops the top page unless it is the root, and reports whether it did.
func (p *Pages) Back() bool {
	if len(p.stack) <= 1 {
		return false
	}
	p.stack = p.stack[:len(p.stack)-1]
	p.SwitchToPage(p.Current())
	p.notify()
	return true
}

// Reset makes name the only page on the stack.
func (p *Pages) Reset(name string) {
	p.stack = []string{name}
	p.SwitchToPage(name)
	p.notify()
}

// Current returns the name of the top page.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Depth returns the current stack depth.
func (p *Pages) Depth() int {
	return len(p.stack)
}

func (p *Pages) notify() {
	if p.onChange != nil {
		p.onChange(p.Current())
	}
}
