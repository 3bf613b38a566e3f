package ws

import (
	"context"
	"time"

	"github.com/IvanTurko/httpmediator/event"
	"github.com/IvanTurko/httpmediator/sdkerr"
	"github.com/gorilla/websocket"
)

// Connect dials the monitor and starts draining incoming frames so control
// messages are handled.
func (r *Relay) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.url, nil)
	if err != nil {
		r.errorf("connect failed: %v", err)
		return wsError("Relay.Connect", sdkerr.ErrWSConnection, err)
	}

	r.attach(ctx, conn)
	r.debugf("connected to %s", r.url)
	return nil
}

func (r *Relay) attach(ctx context.Context, conn Conn) {
	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()

	go r.drain(ctx)
}

func (r *Relay) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.debugf("reader stopped by ctx")
			return
		default:
		}

		msgType, _, err := r.conn.ReadMessage()
		if err != nil {
			if !isReadInterrupted(err) {
				r.errorf("recv error: %v", err)
			}
			return
		}
		r.debugf("recv [%s] ignored", typeMsg(msgType))
	}
}

// Listen encodes and sends one event. It implements event.Listener.
func (r *Relay) Listen(name string, payload event.Payload) {
	msgType, data, err := encode(r.encoding, name, payload)
	if err != nil {
		r.fail(sdkerr.NewSDKError().
			WithSubsys(subsys).
			WithOp("Relay.Listen").
			WithKind(sdkerr.ErrEncode).
			WithMessage(name).
			WithCause(err))
		return
	}

	if err := r.write(msgType, data); err != nil {
		r.fail(err)
	}
}

func (r *Relay) write(msgType int, data []byte) error {
	op := "Relay.write"

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return sdkerr.NewSDKError().
			WithSubsys(subsys).
			WithOp(op).
			WithKind(sdkerr.ErrWSConnection).
			WithMessage("not connected")
	}

	if err := r.conn.SetWriteDeadline(time.Now().Add(r.writeTimeout)); err != nil {
		return wsError(op, sdkerr.ErrWSWrite, err)
	}
	if err := r.conn.WriteMessage(msgType, data); err != nil {
		return wsError(op, sdkerr.ErrWSWrite, err)
	}

	r.sent++
	return nil
}

func (r *Relay) fail(err error) {
	r.errorf("event dropped: %v", err)

	r.mu.Lock()
	r.dropped++
	r.lastErr = err
	r.mu.Unlock()
}

// Err returns the most recent send failure, if any.
func (r *Relay) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Stats returns how many events were sent and dropped.
func (r *Relay) Stats() (sent, dropped uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent, r.dropped
}

// Close sends a close frame and closes the connection. Closing a relay that
// never connected is a no-op.
func (r *Relay) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.conn == nil {
			return
		}

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = r.conn.SetWriteDeadline(time.Now().Add(r.writeTimeout))
		if err := r.conn.WriteMessage(websocket.CloseMessage, msg); err != nil && !isReadInterrupted(err) {
			r.errorf("close frame failed: %v", err)
		}

		if err := r.conn.Close(); err != nil {
			r.errorf("connection close failed: %v", err)
			r.closeErr = wsError("Relay.Close", sdkerr.ErrWSClose, err)
		}
	})
	return r.closeErr
}

func (r *Relay) debugf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Debugf(format, args...)
	}
}

func (r *Relay) errorf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Errorf(format, args...)
	}
}

var _ event.Listener = (*Relay)(nil)
