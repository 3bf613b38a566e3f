// Package event defines the named events a transfer dispatches and a
// synchronous bus that fans them out to listeners.
package event

import "sync"

// Event names dispatched during a transfer.
const (
	// Progress is dispatched on every progress tick of the transfer engine.
	Progress = "progress"
	// Write is dispatched before a response body chunk is written.
	Write = "write"
	// Read is dispatched after a request body chunk is read.
	Read = "read"
	// StatusLine is dispatched by a request when a response status line arrives.
	StatusLine = "request.receive.status_line"

	// All subscribes a listener to every event name.
	All = "*"
)

// Payload keys.
const (
	KeyRequest          = "request"
	KeyHandle           = "handle"
	KeyDownloadSize     = "download_size"
	KeyDownloaded       = "downloaded"
	KeyUploadSize       = "upload_size"
	KeyUploaded         = "uploaded"
	KeyWrite            = "write"
	KeyRead             = "read"
	KeyLine             = "line"
	KeyStatusCode       = "status_code"
	KeyReasonPhrase     = "reason_phrase"
	KeyPreviousResponse = "previous_response"
)

// Payload is the key-value body of a dispatched event.
type Payload map[string]any

// Dispatcher fires a named event with a payload. Dispatch is fire-and-forget.
type Dispatcher interface {
	Dispatch(name string, payload Payload)
}

// Listener receives dispatched events.
type Listener interface {
	Listen(name string, payload Payload)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(name string, payload Payload)

// Listen calls f(name, payload).
func (f ListenerFunc) Listen(name string, payload Payload) {
	f(name, payload)
}

type subscription struct {
	id       uint64
	name     string
	listener Listener
}

// Bus is a synchronous in-process Dispatcher. Listeners run on the
// dispatching goroutine in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers l for events called name, or for every event when name
// is All. The returned func removes the subscription and is safe to call
// multiple times.
func (b *Bus) Subscribe(name string, l Listener) func() {
	if l == nil {
		panic("listener must not be nil")
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, name: name, listener: l})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

// Dispatch delivers the event to every matching listener.
func (b *Bus) Dispatch(name string, payload Payload) {
	b.mu.RLock()
	matched := make([]Listener, 0, len(b.subs))
	for _, s := range b.subs {
		if s.name == name || s.name == All {
			matched = append(matched, s.listener)
		}
	}
	b.mu.RUnlock()

	for _, l := range matched {
		l.Listen(name, payload)
	}
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}
