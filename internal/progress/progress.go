// Package progress carries sync pass status from the engine to whoever is
// watching: a console line, the TUI status bar, or nobody.
package progress

import "fmt"

// Phase is the state a sync pass reports.
type Phase string

const (
	Idle    Phase = "idle"
	Syncing Phase = "syncing"
	Done    Phase = "done"
	Error   Phase = "error"
)

// Update is one status transition. A pass emits zero or more Syncing updates
// followed by exactly one Done or Error.
type Update struct {
	Phase         Phase
	CurrentChat   int // 1-based; 0 before the chat list is known
	TotalChats    int
	MessagesSoFar int
	ChatName      string // display form, may be truncated
	ErrorMessage  string
}

// Terminal reports whether u ends a pass.
func (u Update) Terminal() bool {
	return u.Phase == Done || u.Phase == Error
}

func (u Update) String() string {
	switch u.Phase {
	case Syncing:
		if u.TotalChats == 0 {
			return "syncing"
		}
		return fmt.Sprintf("syncing %d/%d %s (%d messages)", u.CurrentChat, u.TotalChats, u.ChatName, u.MessagesSoFar)
	case Done:
		return fmt.Sprintf("synced %d messages from %d chats", u.MessagesSoFar, u.TotalChats)
	case Error:
		return "sync failed: " + u.ErrorMessage
	default:
		return string(u.Phase)
	}
}

// Reporter receives status updates. Report is called synchronously on the
// sync worker.
type Reporter interface {
	Report(Update)
}

// Func adapts a plain callback to Reporter.
type Func func(Update)

// Report calls f(u).
func (f Func) Report(u Update) { f(u) }

// Nop discards every update.
type Nop struct{}

// Report does nothing.
func (Nop) Report(Update) {}

type multi []Reporter

func (m multi) Report(u Update) {
	for _, r := range m {
		r.Report(u)
	}
}

// Multi fans each update out to every non-nil reporter in order.
func Multi(reporters ...Reporter) Reporter {
	var m multi
	for _, r := range reporters {
		if r != nil {
			m = append(m, r)
		}
	}
	if len(m) == 0 {
		return Nop{}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}
