package progress

import (
	"fmt"
	"slices"
	"sync"
)

var validTransitions = map[Phase][]Phase{
	Idle:    {Syncing, Error},
	Syncing: {Syncing, Done, Error},
	Done:    {},
	Error:   {},
}

// Machine enforces update ordering for one pass and forwards accepted
// updates to the wrapped reporter. Out-of-order updates are dropped.
type Machine struct {
	mu      sync.Mutex
	current Phase
	next    Reporter
}

// NewMachine creates a machine in the Idle phase.
func NewMachine(next Reporter) *Machine {
	if next == nil {
		next = Nop{}
	}
	return &Machine{current: Idle, next: next}
}

// Current returns the current phase.
func (m *Machine) Current() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Transition moves to phase to, or returns an error if that would break the
// Syncing* then Done|Error ordering.
func (m *Machine) Transition(to Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid progress transition from %s to %s", m.current, to)
	}
	m.current = to
	return nil
}

// Report forwards u if its phase is a valid next step.
func (m *Machine) Report(u Update) {
	if err := m.Transition(u.Phase); err != nil {
		return
	}
	m.next.Report(u)
}
