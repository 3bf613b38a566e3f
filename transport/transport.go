package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/IvanTurko/httpmediator/event"
)

// HTTPClient executes a Request and returns the Response it assembled.
// Implementations must respect the context.
type HTTPClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Request is one HTTP request/response pair. It owns the request body, the
// response being received and the dispatcher events are fired on.
type Request struct {
	Method  string
	URL     string
	Headers http.Header

	body       io.Reader
	response   *Response
	out        io.Writer
	dispatcher event.Dispatcher
}

// NewRequest creates a Request. body may be nil for bodyless requests.
func NewRequest(method, url string, body io.Reader) *Request {
	return &Request{
		Method:  method,
		URL:     url,
		Headers: make(http.Header),
		body:    body,
	}
}

// Body returns the request body, or nil when there is none.
func (r *Request) Body() io.Reader {
	return r.body
}

// SetResponseBody makes response bodies go to w instead of memory.
func (r *Request) SetResponseBody(w io.Writer) *Request {
	r.out = w
	if r.response != nil {
		r.response.body = w
	}
	return r
}

// SetDispatcher sets where events are fired. Without one, Dispatch is a no-op.
func (r *Request) SetDispatcher(d event.Dispatcher) *Request {
	r.dispatcher = d
	return r
}

// Dispatch fires an event on the request's dispatcher.
func (r *Request) Dispatch(name string, payload event.Payload) {
	if r.dispatcher != nil {
		r.dispatcher.Dispatch(name, payload)
	}
}

// Response returns the response currently being received. It is created
// lazily, so it is never nil.
func (r *Request) Response() *Response {
	if r.response == nil {
		r.response = newResponse(r.out)
	}
	return r.response
}

// ResponseBody returns the writer the current response body goes to.
func (r *Request) ResponseBody() io.Writer {
	return r.Response().Body()
}

// ReceiveResponseHeader consumes one raw header line. A status line starts a
// new response, so interim responses such as 100 Continue are replaced by the
// final one. It always consumes the whole line.
func (r *Request) ReceiveResponseHeader(line []byte) int {
	size := len(line)
	text := strings.TrimRight(string(line), "\r\n")

	switch {
	case strings.HasPrefix(text, "HTTP/"):
		previous := r.response
		resp := newResponse(r.out)
		resp.Protocol, resp.StatusCode, resp.ReasonPhrase = parseStatusLine(text)
		r.response = resp

		r.Dispatch(event.StatusLine, event.Payload{
			event.KeyRequest:          r,
			event.KeyLine:             text,
			event.KeyStatusCode:       resp.StatusCode,
			event.KeyReasonPhrase:     resp.ReasonPhrase,
			event.KeyPreviousResponse: previous,
		})

	case text == "" || r.response == nil:
		// blank separator, or a header before any status line

	default:
		name, value, ok := strings.Cut(text, ":")
		if ok {
			r.response.Headers.Add(strings.TrimSpace(name), strings.TrimSpace(value))
		}
	}

	return size
}

// String renders "METHOD URL".
func (r *Request) String() string {
	return r.Method + " " + r.URL
}

// Response is the response being assembled from header lines and body chunks.
type Response struct {
	Protocol     string
	StatusCode   int
	ReasonPhrase string
	Headers      http.Header

	body io.Writer
}

func newResponse(out io.Writer) *Response {
	if out == nil {
		out = new(bytes.Buffer)
	}
	return &Response{Headers: make(http.Header), body: out}
}

// Body returns the writer the response body is written to.
func (r *Response) Body() io.Writer {
	return r.body
}

// Bytes returns the body when it is kept in memory, or nil when it was
// redirected with SetResponseBody.
func (r *Response) Bytes() []byte {
	if buf, ok := r.body.(*bytes.Buffer); ok {
		return buf.Bytes()
	}
	return nil
}

func parseStatusLine(line string) (protocol string, code int, reason string) {
	parts := strings.SplitN(line, " ", 3)
	protocol = parts[0]
	if len(parts) > 1 {
		code, _ = strconv.Atoi(parts[1])
	}
	if len(parts) > 2 {
		reason = parts[2]
	}
	return protocol, code, reason
}
