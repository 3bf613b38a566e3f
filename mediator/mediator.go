// Package mediator forwards transfer-engine callbacks to a request: raw
// response header lines, progress ticks, response body chunks and request
// body chunks.
package mediator

import (
	"errors"
	"io"

	"github.com/IvanTurko/httpmediator/event"
)

// Request is the request side of a transfer as seen by the mediator.
type Request interface {
	// ReceiveResponseHeader consumes one raw header line and returns the
	// number of bytes consumed.
	ReceiveResponseHeader(line []byte) int
	// ResponseBody returns the stream response body bytes are written to.
	ResponseBody() io.Writer
	// Body returns the request body, or nil when the request has none.
	Body() io.Reader
	event.Dispatcher
}

// TransferMediator sits between a transfer engine and the request of one
// transfer attempt. It is not safe for concurrent use.
type TransferMediator struct {
	request Request
	emitIO  bool
}

// New creates a mediator for req. When emitIO is true, Write and Read events
// are dispatched for every body chunk.
//
// Panics if req is nil.
func New(req Request, emitIO bool) *TransferMediator {
	if req == nil {
		panic("request must not be nil")
	}
	return &TransferMediator{request: req, emitIO: emitIO}
}

// EmitIO reports whether body chunk events are dispatched.
func (m *TransferMediator) EmitIO() bool {
	return m.emitIO
}

// ReceiveResponseHeader hands a raw header line to the request untouched.
func (m *TransferMediator) ReceiveResponseHeader(line []byte) int {
	return m.request.ReceiveResponseHeader(line)
}

// Progress dispatches a Progress event. handle may be nil.
func (m *TransferMediator) Progress(downloadSize, downloaded, uploadSize, uploaded int64, handle any) {
	m.request.Dispatch(event.Progress, event.Payload{
		event.KeyRequest:      m.request,
		event.KeyHandle:       handle,
		event.KeyDownloadSize: downloadSize,
		event.KeyDownloaded:   downloaded,
		event.KeyUploadSize:   uploadSize,
		event.KeyUploaded:     uploaded,
	})
}

// WriteResponseBody writes chunk to the response body and returns what the
// body writer returns.
func (m *TransferMediator) WriteResponseBody(chunk []byte) (int, error) {
	if m.emitIO {
		m.request.Dispatch(event.Write, event.Payload{
			event.KeyRequest: m.request,
			event.KeyWrite:   chunk,
		})
	}

	return m.request.ResponseBody().Write(chunk)
}

// ReadRequestBody reads up to length bytes of the request body. An empty
// chunk means the body is exhausted or absent.
func (m *TransferMediator) ReadRequestBody(length int) ([]byte, error) {
	body := m.request.Body()
	if body == nil {
		return []byte{}, nil
	}

	read, err := readChunk(body, length)
	if err != nil {
		return nil, err
	}

	// Fires on empty reads too.
	if m.emitIO {
		m.request.Dispatch(event.Read, event.Payload{
			event.KeyRequest: m.request,
			event.KeyRead:    read,
		})
	}

	return read, nil
}

func readChunk(r io.Reader, length int) ([]byte, error) {
	if length <= 0 {
		return []byte{}, nil
	}

	buf := make([]byte, length)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:n], nil
}
