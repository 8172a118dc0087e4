package loop

import (
	"encoding/json"

	"github.com/wricardo/gamesession/game/session"
)

// EventKind names what happened in the loop
type EventKind string

const (
	EventResponse   EventKind = "response"
	EventParseError EventKind = "parse_error"
	EventTerminated EventKind = "terminated"
)

// Event describes one handled line or the end of the loop
type Event struct {
	Kind     EventKind        `json:"event"`
	Session  session.Snapshot `json:"session"`
	Document json.RawMessage  `json:"document,omitempty"`
	DocKind  string           `json:"document_kind,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Observer receives loop events. Observe is called on the loop goroutine
// and must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

// Observe implements Observer
func (f ObserverFunc) Observe(e Event) {
	f(e)
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}
