package replicate

// EventStatus is the lifecycle phase reported by a progress event.
type EventStatus string

const (
	// EventStart opens a multi-step operation.
	EventStart EventStatus = "start"

	// EventRunning marks a step in flight.
	EventRunning EventStatus = "running"

	// EventProgress reports incremental progress within a step.
	EventProgress EventStatus = "progress"

	// EventOK marks a step completed successfully.
	EventOK EventStatus = "ok"

	// EventFailed marks a step that failed.
	EventFailed EventStatus = "failed"

	// EventRefused marks a destructive step that was refused by a safety
	// check. Refusal is never a failure.
	EventRefused EventStatus = "refused"

	// EventDone closes the operation.
	EventDone EventStatus = "done"
)

// Event is one progress observation from a long-running replication
// operation. Events carry enough for both a live console and a job log.
type Event struct {
	// Step names the phase ("code", "secrets", "variables", "workflows",
	// "wipe", ...).
	Step string `json:"step"`

	// Status is the lifecycle phase.
	Status EventStatus `json:"status"`

	// Detail is a human-readable note (commit hash, "12/12", ...).
	Detail string `json:"detail,omitempty"`

	// Progress is the fraction complete in [0,1] where known, else 0.
	Progress float64 `json:"progress,omitempty"`

	// Error carries the failure text for EventFailed.
	Error string `json:"error,omitempty"`

	// TargetID is the slot the event concerns, 0 when operation-wide.
	TargetID int `json:"target_id,omitempty"`
}

// EventSink receives progress events. Implementations must be fast and must
// not block; slow consumers should buffer on their side.
type EventSink interface {
	Publish(Event)
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(Event)

// Publish implements EventSink.
func (f EventSinkFunc) Publish(e Event) { f(e) }

// NopSink discards every event.
var NopSink EventSink = EventSinkFunc(func(Event) {})
