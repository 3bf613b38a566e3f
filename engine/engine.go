// Package engine is a callback-driven transfer engine built on net/http. It
// drives a mediator the way a curl handle would: raw header lines, progress
// ticks, body chunks pulled for upload and body chunks pushed on download.
//
// Redirects, connection reuse and TLS are left to the underlying http.Client.
package engine

import (
	"context"
	"fmt"
	"net/http"

	"github.com/IvanTurko/httpmediator/internal/httpx"
	counter "github.com/IvanTurko/httpmediator/internal/sync"
	"github.com/IvanTurko/httpmediator/mediator"
	"github.com/IvanTurko/httpmediator/sdkerr"
	"github.com/IvanTurko/httpmediator/transport"
)

const (
	subsys           = "engine"
	defaultChunkSize = 16 << 10
)

// HTTPDoer is the part of *http.Client the engine needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Logger is an interface for logging.
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Option is a function type for client options.
type Option func(*Client)

// Handle identifies one transfer attempt. It is passed along with every
// progress tick.
type Handle struct {
	ID     int64
	Method string
	URL    string
}

func (h *Handle) String() string {
	return fmt.Sprintf("#%d %s %s", h.ID, h.Method, h.URL)
}

// Client performs mediated transfers. It is safe for concurrent use; each
// call to Do gets its own mediator.
type Client struct {
	doer      HTTPDoer
	logger    Logger
	emitIO    bool
	chunkSize int
	ids       counter.Counter
}

// NewClient creates a Client.
//
// By default:
//   - requests go through a zero http.Client.
//   - body chunks are 16 KiB.
//   - read and write events are not emitted.
func NewClient(opts ...Option) *Client {
	c := &Client{
		chunkSize: defaultChunkSize,
		ids:       counter.NewCounter(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.doer == nil {
		c.doer = &http.Client{}
	}
	return c
}

// WithHTTPDoer sets the client that performs the network I/O.
func WithHTTPDoer(d HTTPDoer) Option {
	return func(c *Client) {
		c.doer = d
	}
}

// WithLogger sets the logger for the client.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithEmitIO makes every transfer dispatch read and write events.
func WithEmitIO(emit bool) Option {
	return func(c *Client) {
		c.emitIO = emit
	}
}

// WithChunkSize sets the maximum body chunk size.
// If n is not positive, it defaults to 16 KiB.
func WithChunkSize(n int) Option {
	return func(c *Client) {
		if n <= 0 {
			n = defaultChunkSize
		}
		c.chunkSize = n
	}
}

// Do performs req and returns its response once the body is fully received.
func (c *Client) Do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	handle := &Handle{ID: c.ids.Add(1), Method: req.Method, URL: req.URL}
	size := httpx.BodySize(req.Body())

	err := c.run(req, handle, size, func(t *transfer) (*http.Request, error) {
		return httpx.NewStdRequest(ctx, req, t.puller())
	})
	if err != nil {
		return nil, err
	}
	return req.Response(), nil
}

func (c *Client) run(target mediator.Request, handle *Handle, uploadSize int64, build func(*transfer) (*http.Request, error)) error {
	op := "Client.Do"
	t := newTransfer(mediator.New(target, c.emitIO), handle, c.chunkSize, uploadSize)

	stdReq, err := build(t)
	if err != nil {
		return sdkerr.NewSDKError().
			WithSubsys(subsys).
			WithOp(op).
			WithKind(sdkerr.ErrValidation).
			WithCause(err)
	}
	defer t.close()

	c.debugf("transfer %s started", handle)

	resp, err := c.doer.Do(stdReq)
	if err != nil {
		kind := sdkerr.ErrRequestFailed
		if readErr := t.readError(); readErr != nil {
			kind, err = sdkerr.ErrRequestBody, readErr
		}
		c.errorf("transfer %s failed: %v", handle, err)
		return sdkerr.NewSDKError().
			WithSubsys(subsys).
			WithOp(op).
			WithKind(kind).
			WithCause(err)
	}
	defer resp.Body.Close()

	if err := t.receiveHeaders(resp); err != nil {
		c.errorf("transfer %s aborted: %v", handle, err)
		return err
	}

	if err := t.receiveBody(resp); err != nil {
		c.errorf("transfer %s aborted: %v", handle, err)
		return err
	}

	t.finish()
	c.debugf("transfer %s done: %d bytes up, %d bytes down", handle, t.uploaded.Get(), t.downloaded.Get())
	return nil
}

func (c *Client) debugf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}

func (c *Client) errorf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Errorf(format, args...)
	}
}

var _ transport.HTTPClient = (*Client)(nil)
