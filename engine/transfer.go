package engine

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/IvanTurko/httpmediator/internal/httpx"
	counter "github.com/IvanTurko/httpmediator/internal/sync"
	"github.com/IvanTurko/httpmediator/mediator"
	"github.com/IvanTurko/httpmediator/sdkerr"
)

// transfer is the state of one attempt. net/http pulls the upload from its
// own goroutine, so every call into the mediator holds mu.
type transfer struct {
	mu        sync.Mutex
	m         *mediator.TransferMediator
	handle    *Handle
	chunkSize int
	readErr   error
	// closed is set once Do is about to return; the mediator is not called
	// after that.
	closed bool

	uploadSize   int64
	downloadSize int64
	uploaded     counter.Counter
	downloaded   counter.Counter
}

func newTransfer(m *mediator.TransferMediator, handle *Handle, chunkSize int, uploadSize int64) *transfer {
	if uploadSize < 0 {
		uploadSize = 0
	}
	return &transfer{
		m:          m,
		handle:     handle,
		chunkSize:  chunkSize,
		uploadSize: uploadSize,
		uploaded:   counter.NewCounter(),
		downloaded: counter.NewCounter(),
	}
}

func (t *transfer) puller() io.Reader {
	return &bodyPuller{t: t}
}

// pull asks the mediator for the next request body chunk.
func (t *transfer) pull() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, io.EOF
	}
	chunk, err := t.m.ReadRequestBody(t.chunkSize)
	if err != nil {
		t.readErr = err
		return nil, err
	}
	if len(chunk) > 0 {
		t.uploaded.Add(len(chunk))
		t.progressLocked()
	}
	return chunk, nil
}

func (t *transfer) readError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readErr
}

func (t *transfer) receiveHeaders(resp *http.Response) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if resp.ContentLength > 0 {
		t.downloadSize = resp.ContentLength
	}

	for _, line := range httpx.HeaderLines(resp) {
		if n := t.m.ReceiveResponseHeader(line); n != len(line) {
			return sdkerr.NewSDKError().
				WithSubsys(subsys).
				WithOp("transfer.receiveHeaders").
				WithKind(sdkerr.ErrHeaderAborted).
				WithMessage(fmt.Sprintf("consumed %d of %d bytes", n, len(line)))
		}
	}
	return nil
}

func (t *transfer) receiveBody(resp *http.Response) error {
	op := "transfer.receiveBody"
	for {
		chunk := make([]byte, t.chunkSize)
		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			if err := t.push(chunk[:n]); err != nil {
				return err
			}
		}

		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return sdkerr.NewSDKError().
				WithSubsys(subsys).
				WithOp(op).
				WithKind(sdkerr.ErrRequestFailed).
				WithCause(readErr)
		}
	}
}

// push hands a response body chunk to the mediator.
func (t *transfer) push(chunk []byte) error {
	op := "transfer.push"

	t.mu.Lock()
	defer t.mu.Unlock()

	n, err := t.m.WriteResponseBody(chunk)
	t.downloaded.Add(n)
	if err != nil {
		return sdkerr.NewSDKError().
			WithSubsys(subsys).
			WithOp(op).
			WithKind(sdkerr.ErrResponseBody).
			WithCause(err)
	}
	if n != len(chunk) {
		return sdkerr.NewSDKError().
			WithSubsys(subsys).
			WithOp(op).
			WithKind(sdkerr.ErrShortWrite).
			WithMessage(fmt.Sprintf("wrote %d of %d bytes", n, len(chunk)))
	}

	t.progressLocked()
	return nil
}

// finish sends the final progress tick and closes the transfer.
func (t *transfer) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.progressLocked()
	t.closed = true
}

// close detaches the mediator without a final tick. An upload still in
// flight sees end of stream.
func (t *transfer) close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

func (t *transfer) progressLocked() {
	t.m.Progress(t.downloadSize, t.downloaded.Get(), t.uploadSize, t.uploaded.Get(), t.handle)
}

// bodyPuller is the request body handed to net/http.
type bodyPuller struct {
	t       *transfer
	pending []byte
	done    bool
}

func (p *bodyPuller) Read(buf []byte) (int, error) {
	if len(p.pending) == 0 {
		if p.done {
			return 0, io.EOF
		}
		chunk, err := p.t.pull()
		if err != nil {
			return 0, err
		}
		if len(chunk) == 0 {
			p.done = true
			return 0, io.EOF
		}
		p.pending = chunk
	}

	n := copy(buf, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}
