package ws

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/IvanTurko/httpmediator/sdkerr"
	"github.com/gorilla/websocket"
)

// wsError wraps err with kind and a short description of what went wrong.
func wsError(op string, kind, err error) *sdkerr.SDKError {
	return sdkerr.NewSDKError().
		WithSubsys(subsys).
		WithOp(op).
		WithKind(kind).
		WithMessage(describe(err)).
		WithCause(err)
}

func describe(err error) string {
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure):
		return "connection closed normally"
	case websocket.IsCloseError(err, websocket.CloseAbnormalClosure):
		return "connection closed abnormally"
	case isReadInterrupted(err):
		return "connection already closed"
	case isUnexpectedEOF(err):
		return "unexpected EOF"
	case isNetError(err):
		return "network issue"
	default:
		return "internal error"
	}
}

func isReadInterrupted(err error) bool {
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, websocket.ErrCloseSent) ||
		strings.Contains(err.Error(), "use of closed network connection")
}

func isUnexpectedEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func isNetError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

func typeMsg(code int) string {
	switch code {
	case websocket.TextMessage:
		return "Text"
	case websocket.BinaryMessage:
		return "Binary"
	case websocket.CloseMessage:
		return "Close"
	case websocket.PingMessage:
		return "Ping"
	case websocket.PongMessage:
		return "Pong"
	default:
		return fmt.Sprintf("Unknown(%d)", code)
	}
}
