package progress

import "github.com/sudomakes/oneway/internal/bus"

// Event kinds published by the bus reporter.
const (
	KindSyncProgress = "sync.progress"
	KindSyncDone     = "sync.done"
	KindSyncError    = "sync.error"
)

// BusReporter publishes every update on a bus so background consumers can
// subscribe to "sync." without the engine knowing about them.
type BusReporter struct {
	bus *bus.Bus
}

// NewBusReporter creates a reporter publishing on b.
func NewBusReporter(b *bus.Bus) *BusReporter {
	return &BusReporter{bus: b}
}

// Report publishes u with a kind matching its phase.
func (r *BusReporter) Report(u Update) {
	kind := KindSyncProgress
	switch u.Phase {
	case Done:
		kind = KindSyncDone
	case Error:
		kind = KindSyncError
	}
	r.bus.Publish(bus.Event{Kind: kind, Payload: u})
}

// FromEvent extracts the update carried by a bus event.
func FromEvent(evt bus.Event) (Update, bool) {
	u, ok := evt.Payload.(Update)
	return u, ok
}
