package httpx

import (
	"context"
	"io"
	"net/http"

	"github.com/IvanTurko/httpmediator/transport"
)

// NewStdRequest builds the net/http request for r. The payload is taken from
// body rather than r.Body(), so the caller decides how it is pulled.
func NewStdRequest(ctx context.Context, r *transport.Request, body io.Reader) (*http.Request, error) {
	var rc io.ReadCloser
	size := BodySize(r.Body())
	if r.Body() != nil && size != 0 {
		rc = io.NopCloser(body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, rc)
	if err != nil {
		return nil, err
	}

	for k, vs := range r.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	if rc != nil {
		req.ContentLength = size
	}
	return req, nil
}

// BodySize returns the length of body when it can be known up front, 0 for a
// nil body and -1 otherwise.
func BodySize(body io.Reader) int64 {
	if body == nil {
		return 0
	}
	if l, ok := body.(interface{ Len() int }); ok {
		return int64(l.Len())
	}
	return -1
}
