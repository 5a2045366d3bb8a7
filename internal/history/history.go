package history

import (
	"fmt"
	"sort"
	"strings"
)

// Event records one mutation-causing operation.
type Event struct {
	Name   string
	Args   []any
	Kwargs map[string]any
}

func (e Event) String() string {
	if len(e.Args) == 0 && len(e.Kwargs) == 0 {
		return fmt.Sprintf("<Event: %s>", e.Name)
	}
	parts := make([]string, 0, len(e.Args)+len(e.Kwargs))
	for _, a := range e.Args {
		parts = append(parts, fmt.Sprint(a))
	}
	keys := make([]string, 0, len(e.Kwargs))
	for k := range e.Kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Kwargs[k]))
	}
	return fmt.Sprintf("<Event: %s with args (%s)>", e.Name, strings.Join(parts, ", "))
}

// History is an append-only log, optionally chained to the history of the
// dataset it was derived from.
type History struct {
	prev   *History
	events []Event
}

// New starts a history chained to prev, which may be nil.
func New(prev *History) *History { return &History{prev: prev} }

// Append records an event.
func (h *History) Append(name string, args []any, kwargs map[string]any) {
	h.events = append(h.events, Event{Name: name, Args: args, Kwargs: kwargs})
}

// Len counts events across the whole chain.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.events) + h.prev.Len()
}

// Events returns the chain's events, oldest first.
func (h *History) Events() []Event {
	if h == nil {
		return nil
	}
	return append(h.prev.Events(), h.events...)
}

// Last returns the most recent event in the chain.
func (h *History) Last() (Event, bool) {
	for cur := h; cur != nil; cur = cur.prev {
		if n := len(cur.events); n > 0 {
			return cur.events[n-1], true
		}
	}
	return Event{}, false
}

func (h *History) String() string {
	evs := h.Events()
	parts := make([]string, len(evs))
	for i, e := range evs {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
