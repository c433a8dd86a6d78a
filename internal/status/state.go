// Package status tracks the WhatsApp session's connection state.
package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/sudomakes/oneway/internal/bus"
)

// KindChanged is the bus kind published on every accepted transition.
const KindChanged = "session.status_changed"

// State is the connection state of the WhatsApp session.
type State string

const (
	Offline      State = "OFFLINE"
	AuthRequired State = "AUTH_REQUIRED"
	Connecting   State = "CONNECTING"
	Connected    State = "CONNECTED"
	LoggedOut    State = "LOGGED_OUT"
	Error        State = "ERROR"
)

var validTransitions = map[State][]State{
	Offline:      {AuthRequired, Connecting, Error},
	AuthRequired: {Connecting, Offline, Error},
	Connecting:   {Connected, AuthRequired, Offline, Error},
	Connected:    {Offline, LoggedOut, Connecting, Error},
	LoggedOut:    {AuthRequired, Offline},
	Error:        {Offline, Connecting},
}

// Machine tracks session state and announces changes on the bus.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a machine in the Offline state. b may be nil.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{current: Offline, bus: b}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition moves to a new state. Returns error if the transition is invalid.
// Transitioning to the current state is a no-op.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	from := m.current
	if from == to {
		m.mu.Unlock()
		return nil
	}
	if !slices.Contains(validTransitions[from], to) {
		m.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	m.current = to
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:    KindChanged,
			Payload: Change{From: from, To: to},
		})
	}
	return nil
}

// Change is the payload for KindChanged events.
type Change struct {
	From State
	To   State
}
