package testutil

import (
	"io"

	"github.com/IvanTurko/httpmediator/event"
)

// FakeRequest is a configurable request collaborator for mediator tests.
// Calls records "header", "write", "read" and "dispatch:<name>" in call order.
type FakeRequest struct {
	RecordingDispatcher

	HeaderFunc func(line []byte) int
	Out        io.Writer
	In         io.Reader
	Calls      []string
}

func (f *FakeRequest) ReceiveResponseHeader(line []byte) int {
	f.Calls = append(f.Calls, "header")
	if f.HeaderFunc == nil {
		return len(line)
	}
	return f.HeaderFunc(line)
}

func (f *FakeRequest) ResponseBody() io.Writer {
	return callWriter{f: f}
}

func (f *FakeRequest) Body() io.Reader {
	if f.In == nil {
		return nil
	}
	return callReader{f: f}
}

func (f *FakeRequest) Dispatch(name string, payload event.Payload) {
	f.Calls = append(f.Calls, "dispatch:"+name)
	f.RecordingDispatcher.Dispatch(name, payload)
}

type callWriter struct{ f *FakeRequest }

func (w callWriter) Write(p []byte) (int, error) {
	w.f.Calls = append(w.f.Calls, "write")
	return w.f.Out.Write(p)
}

type callReader struct{ f *FakeRequest }

func (r callReader) Read(p []byte) (int, error) {
	r.f.Calls = append(r.f.Calls, "read")
	return r.f.In.Read(p)
}

// ShortWriter accepts at most Limit bytes per Write.
type ShortWriter struct {
	Limit int
	Data  []byte
}

func (w *ShortWriter) Write(p []byte) (int, error) {
	n := len(p)
	if n > w.Limit {
		n = w.Limit
	}
	w.Data = append(w.Data, p[:n]...)
	return n, nil
}

// ErrWriter fails every Write with Err.
type ErrWriter struct{ Err error }

func (w ErrWriter) Write([]byte) (int, error) { return 0, w.Err }

// ErrReader fails every Read with Err.
type ErrReader struct{ Err error }

func (r ErrReader) Read([]byte) (int, error) { return 0, r.Err }
