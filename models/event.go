package models

// Action is a command accepted by the page-side worker.
type Action string

const (
	ActionStartScrape Action = "START_SCRAPE"
	ActionStopScrape  Action = "STOP_SCRAPE"
)

// Command is the wire shape of a request sent to the worker.
type Command struct {
	Action Action `json:"action"`
}

// EventType identifies an event emitted by the worker.
type EventType string

const (
	EventStatusUpdate EventType = "STATUS_UPDATE"
	EventComplete     EventType = "COMPLETE"
	EventError        EventType = "ERROR"
)

// Event is the wire shape of a worker notification.
// Payload is only set on EventComplete; Text on the other types.
type Event struct {
	Type    EventType `json:"type"`
	RunID   string    `json:"run_id,omitempty"`
	Text    string    `json:"text,omitempty"`
	Payload string    `json:"payload,omitempty"`
}

// Terminal reports whether the event ends a run.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

func StatusEvent(runID, text string) Event {
	return Event{Type: EventStatusUpdate, RunID: runID, Text: text}
}

func CompleteEvent(runID, payload string) Event {
	return Event{Type: EventComplete, RunID: runID, Payload: payload}
}

func ErrorEvent(runID, text string) Event {
	return Event{Type: EventError, RunID: runID, Text: text}
}
