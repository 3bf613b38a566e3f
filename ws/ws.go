// Package ws relays transfer events to a remote monitor over a websocket.
package ws

import (
	"sync"
	"time"
)

const subsys = "ws"

// Conn is an interface for a websocket connection.
type Conn interface {
	Close() error
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
}

// Encoding selects the wire form of relayed events.
type Encoding string

const (
	// EncodingJSON sends text frames holding {"event": ..., "data": {...}}.
	EncodingJSON Encoding = "json"
	// EncodingProto sends binary frames holding the same document as a
	// google.protobuf.Struct.
	EncodingProto Encoding = "proto"
)

// Option is a function type for relay options.
type Option func(*Relay)

// Logger is an interface for logging.
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Relay publishes every event it listens to. Write failures never reach the
// transfer that dispatched the event; they are logged and kept in Err.
type Relay struct {
	conn     Conn
	logger   Logger
	url      string
	encoding Encoding

	mu           sync.Mutex
	writeTimeout time.Duration
	sent         uint64
	dropped      uint64
	lastErr      error

	closeOnce sync.Once
	closeErr  error
}

// NewRelay creates a relay for the given URL.
//
// By default:
//   - Events are JSON encoded.
//   - The write timeout is 300 milliseconds.
//
// Panics if the URL is empty.
func NewRelay(url string, opts ...Option) *Relay {
	if url == "" {
		panic("url must not be empty")
	}

	r := &Relay{
		url:          url,
		encoding:     EncodingJSON,
		writeTimeout: 300 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithLogger sets the logger for the relay.
func WithLogger(l Logger) Option {
	return func(r *Relay) {
		r.logger = l
	}
}

// WithWriteTimeout sets the write timeout for the relay.
// If d is not positive, it defaults to 300 milliseconds.
func WithWriteTimeout(d time.Duration) Option {
	return func(r *Relay) {
		if d <= 0 {
			d = 300 * time.Millisecond
		}
		r.writeTimeout = d
	}
}

// WithEncoding sets the wire encoding. Unknown values fall back to JSON.
func WithEncoding(e Encoding) Option {
	return func(r *Relay) {
		if e != EncodingProto {
			e = EncodingJSON
		}
		r.encoding = e
	}
}
