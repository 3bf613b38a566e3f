package testutil

import (
	"sync"

	"github.com/IvanTurko/httpmediator/event"
)

// Dispatched is one recorded event.
type Dispatched struct {
	Name    string
	Payload event.Payload
}

// RecordingDispatcher records every dispatched event.
type RecordingDispatcher struct {
	mu     sync.Mutex
	Events []Dispatched
	// OnDispatch, when set, runs after the event is recorded.
	OnDispatch func(name string, payload event.Payload)
}

func (d *RecordingDispatcher) Dispatch(name string, payload event.Payload) {
	d.mu.Lock()
	d.Events = append(d.Events, Dispatched{Name: name, Payload: payload})
	d.mu.Unlock()

	if d.OnDispatch != nil {
		d.OnDispatch(name, payload)
	}
}

// Listen lets the recorder subscribe to an event.Bus.
func (d *RecordingDispatcher) Listen(name string, payload event.Payload) {
	d.Dispatch(name, payload)
}

// Names returns the recorded event names in order.
func (d *RecordingDispatcher) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.Events))
	for _, e := range d.Events {
		names = append(names, e.Name)
	}
	return names
}

// Count returns how many events called name were recorded.
func (d *RecordingDispatcher) Count(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, e := range d.Events {
		if e.Name == name {
			n++
		}
	}
	return n
}

// Last returns the most recent event called name.
func (d *RecordingDispatcher) Last(name string) (Dispatched, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := len(d.Events) - 1; i >= 0; i-- {
		if d.Events[i].Name == name {
			return d.Events[i], true
		}
	}
	return Dispatched{}, false
}

var _ event.Dispatcher = (*RecordingDispatcher)(nil)
var _ event.Listener = (*RecordingDispatcher)(nil)
