package bus

import "time"

// Event is a notification published on the bus. Kind is a dotted name such
// as "sync.progress"; subscribers filter on its prefix.
type Event struct {
	ID        string
	Kind      string
	Timestamp time.Time
	Payload   any
}
