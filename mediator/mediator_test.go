package mediator

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/IvanTurko/httpmediator/event"
	"github.com/IvanTurko/httpmediator/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("nil request panics", func(t *testing.T) {
		assert.Panics(t, func() { New(nil, false) })
	})

	t.Run("emit io flag", func(t *testing.T) {
		assert.True(t, New(&testutil.FakeRequest{}, true).EmitIO())
		assert.False(t, New(&testutil.FakeRequest{}, false).EmitIO())
	})
}

func TestTransferMediator_ReceiveResponseHeader(t *testing.T) {
	cases := []struct {
		name string
		line string
		ret  int
	}{
		{name: "status line", line: "HTTP/1.1 200 OK\r\n", ret: 17},
		{name: "header", line: "Content-Type: text/plain\r\n", ret: 26},
		{name: "request reports short count", line: "X-Foo: bar\r\n", ret: 3},
		{name: "request aborts", line: "X-Foo: bar\r\n", ret: -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got []byte
			req := &testutil.FakeRequest{
				HeaderFunc: func(line []byte) int {
					got = line
					return tc.ret
				},
			}

			n := New(req, true).ReceiveResponseHeader([]byte(tc.line))

			assert.Equal(t, tc.ret, n)
			assert.Equal(t, tc.line, string(got))
			assert.Empty(t, req.Events)
		})
	}
}

func TestTransferMediator_Progress(t *testing.T) {
	for _, emitIO := range []bool{false, true} {
		req := &testutil.FakeRequest{}
		m := New(req, emitIO)

		m.Progress(100, 50, 0, 0, nil)

		require.Equal(t, []string{event.Progress}, req.Names(), "emitIO=%v", emitIO)
		payload := req.Events[0].Payload
		assert.Len(t, payload, 6)
		assert.Same(t, req, payload[event.KeyRequest])
		assert.Contains(t, payload, event.KeyHandle)
		assert.Nil(t, payload[event.KeyHandle])
		assert.Equal(t, int64(100), payload[event.KeyDownloadSize])
		assert.Equal(t, int64(50), payload[event.KeyDownloaded])
		assert.Equal(t, int64(0), payload[event.KeyUploadSize])
		assert.Equal(t, int64(0), payload[event.KeyUploaded])
	}
}

func TestTransferMediator_Progress_WithHandle(t *testing.T) {
	req := &testutil.FakeRequest{}
	handle := struct{ id int }{id: 7}

	New(req, false).Progress(1, 2, 3, 4, handle)

	info, ok := event.ProgressFrom(req.Events[0].Payload)
	require.True(t, ok)
	assert.Equal(t, handle, info.Handle)
	assert.Equal(t, int64(3), info.UploadSize)
	assert.Equal(t, int64(4), info.Uploaded)
}

func TestTransferMediator_WriteResponseBody(t *testing.T) {
	t.Run("emit io dispatches before the write", func(t *testing.T) {
		var out bytes.Buffer
		req := &testutil.FakeRequest{Out: &out}

		n, err := New(req, true).WriteResponseBody([]byte("chunk"))

		require.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, "chunk", out.String())
		assert.Equal(t, []string{"dispatch:" + event.Write, "write"}, req.Calls)

		payload := req.Events[0].Payload
		assert.Same(t, req, payload[event.KeyRequest])
		assert.Equal(t, []byte("chunk"), payload[event.KeyWrite])
	})

	t.Run("no events without emit io", func(t *testing.T) {
		var out bytes.Buffer
		req := &testutil.FakeRequest{Out: &out}

		n, err := New(req, false).WriteResponseBody([]byte("chunk"))

		require.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Empty(t, req.Events)
	})

	t.Run("returns the count actually written", func(t *testing.T) {
		out := &testutil.ShortWriter{Limit: 3}
		req := &testutil.FakeRequest{Out: out}

		n, err := New(req, false).WriteResponseBody([]byte("chunk"))

		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, "chu", string(out.Data))
	})

	t.Run("write error is returned unmodified", func(t *testing.T) {
		diskFull := errors.New("disk full")
		req := &testutil.FakeRequest{Out: testutil.ErrWriter{Err: diskFull}}

		n, err := New(req, true).WriteResponseBody([]byte("chunk"))

		assert.Zero(t, n)
		assert.Same(t, diskFull, err)
		assert.Equal(t, 1, req.Count(event.Write))
	})
}

func TestTransferMediator_ReadRequestBody(t *testing.T) {
	t.Run("chunks a body until exhausted", func(t *testing.T) {
		req := &testutil.FakeRequest{In: strings.NewReader("hello world")}
		m := New(req, true)

		var chunks []string
		for i := 0; i < 4; i++ {
			chunk, err := m.ReadRequestBody(5)
			require.NoError(t, err)
			chunks = append(chunks, string(chunk))
		}

		assert.Equal(t, []string{"hello", " worl", "d", ""}, chunks)
		require.Equal(t, 4, req.Count(event.Read))
		assert.Equal(t, []byte("hello"), req.Events[0].Payload[event.KeyRead])
		assert.Equal(t, []byte(" worl"), req.Events[1].Payload[event.KeyRead])
		assert.Same(t, req, req.Events[0].Payload[event.KeyRequest])
	})

	t.Run("dispatches after the read", func(t *testing.T) {
		req := &testutil.FakeRequest{In: strings.NewReader("abc")}

		_, err := New(req, true).ReadRequestBody(2)

		require.NoError(t, err)
		assert.Equal(t, []string{"read", "dispatch:" + event.Read}, req.Calls)
	})

	t.Run("empty read still dispatches with emit io", func(t *testing.T) {
		req := &testutil.FakeRequest{In: strings.NewReader("")}

		chunk, err := New(req, true).ReadRequestBody(5)

		require.NoError(t, err)
		assert.NotNil(t, chunk)
		assert.Empty(t, chunk)
		last, ok := req.Last(event.Read)
		require.True(t, ok)
		assert.Equal(t, []byte{}, last.Payload[event.KeyRead])
	})

	t.Run("no events without emit io", func(t *testing.T) {
		req := &testutil.FakeRequest{In: strings.NewReader("hello")}

		chunk, err := New(req, false).ReadRequestBody(5)

		require.NoError(t, err)
		assert.Equal(t, "hello", string(chunk))
		assert.Empty(t, req.Events)
	})

	t.Run("bodyless request returns empty without touching anything", func(t *testing.T) {
		req := &testutil.FakeRequest{}

		chunk, err := New(req, true).ReadRequestBody(5)

		require.NoError(t, err)
		assert.NotNil(t, chunk)
		assert.Empty(t, chunk)
		assert.Empty(t, req.Events)
		assert.Empty(t, req.Calls)
	})

	t.Run("non positive length", func(t *testing.T) {
		req := &testutil.FakeRequest{In: strings.NewReader("hello")}

		chunk, err := New(req, false).ReadRequestBody(0)

		require.NoError(t, err)
		assert.Empty(t, chunk)
	})

	t.Run("read error is returned unmodified", func(t *testing.T) {
		broken := errors.New("broken pipe")
		req := &testutil.FakeRequest{In: testutil.ErrReader{Err: broken}}

		chunk, err := New(req, true).ReadRequestBody(5)

		assert.Nil(t, chunk)
		assert.Same(t, broken, err)
		assert.Zero(t, req.Count(event.Read))
	})
}

func TestTransferMediator_ProgressOnlyWithoutEmitIO(t *testing.T) {
	var out bytes.Buffer
	req := &testutil.FakeRequest{Out: &out, In: strings.NewReader("body")}
	m := New(req, false)

	m.Progress(100, 50, 0, 0, nil)
	_, err := m.WriteResponseBody([]byte("data"))
	require.NoError(t, err)
	_, err = m.ReadRequestBody(10)
	require.NoError(t, err)

	assert.Equal(t, []string{event.Progress}, req.Names())
}
