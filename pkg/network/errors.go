package network

import (
	"errors"
	"fmt"

	"github.com/quillwire/quill-node/pkg/protocol"
)

var (
	// ErrPingTimeout means the keepalive timer fired while a previous
	// ping was still unanswered. Terminal for the connection.
	ErrPingTimeout = errors.New("ping timeout: pong not received before next ping")

	// ErrCloseRequested means the owner asked the connection to shut
	// down via a CloseRequest event.
	ErrCloseRequested = errors.New("connection close requested")

	// ErrConnectionClosed is returned by Sender operations after the
	// connection has been torn down.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrNoCommonEncoding means handshake negotiation found no payload
	// encoding both sides support.
	ErrNoCommonEncoding = errors.New("no common encoding")

	// ErrHandshakeFailed wraps any failure during handshake.
	ErrHandshakeFailed = errors.New("handshake failed")
)

// InvalidOpcodeError reports a frame whose opcode is not valid in the
// connection's current state, e.g. a handshake frame after the
// handshake completed.
type InvalidOpcodeError struct {
	Actual   uint8
	Expected []uint8 // empty when no opcode was acceptable
}

func (e *InvalidOpcodeError) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("invalid opcode: %s (0x%02x)", protocol.OpcodeName(e.Actual), e.Actual)
	}
	names := make([]string, len(e.Expected))
	for i, op := range e.Expected {
		names[i] = protocol.OpcodeName(op)
	}
	return fmt.Sprintf("invalid opcode: got %s (0x%02x), expected %v", protocol.OpcodeName(e.Actual), e.Actual, names)
}

// GoAwayError reports that the peer told us to terminate. The
// original frame is preserved for diagnostics.
type GoAwayError struct {
	Frame *protocol.GoAway
}

func (e *GoAwayError) Error() string {
	return fmt.Sprintf("told to go away: code=%d reason=%q", e.Frame.Code, e.Frame.Reason())
}

// CloseCode maps a terminal engine error to the close code carried by
// the GoAway frame sent during teardown.
func CloseCode(err error) uint16 {
	var invalidOp *InvalidOpcodeError
	switch {
	case errors.Is(err, ErrPingTimeout):
		return protocol.CodePingTimeout
	case errors.As(err, &invalidOp):
		return protocol.CodeInvalidOp
	case errors.Is(err, protocol.ErrInvalidVersion):
		return protocol.CodeUnsupportedVersion
	case errors.Is(err, ErrNoCommonEncoding):
		return protocol.CodeNoCommonEncoding
	default:
		return protocol.CodeNormal
	}
}
