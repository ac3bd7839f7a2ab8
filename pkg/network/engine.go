package network

import (
	"github.com/quillwire/quill-node/pkg/protocol"
)

// EventHandler is the per-connection protocol engine. It owns the
// keepalive state and the sequence id generator, interprets one Event
// at a time, and returns at most one outgoing frame per event or a
// terminal error.
//
// Only the connection's run loop may call HandleEvent; state is
// single-owner by construction and carries no locks. Delegated work
// runs on separate goroutines and reaches back in only through the
// Sender.
type EventHandler struct {
	handler      Handler
	pongReceived bool
	seq          IdSequence
	sender       Sender
	encoder      Encoder
}

// NewEventHandler creates an engine for one connection. It is created
// after the handshake completes and lives until the connection ends.
func NewEventHandler(sender Sender, handler Handler, encoder Encoder) *EventHandler {
	return &EventHandler{
		handler:      handler,
		pongReceived: true,
		sender:       sender,
		encoder:      encoder,
	}
}

// HandleEvent is the engine's sole entry point. A nil frame with a
// nil error means there is nothing to send. A non-nil error is
// terminal for the connection.
func (e *EventHandler) HandleEvent(event Event) (protocol.Frame, error) {
	switch ev := event.(type) {
	case PingTick:
		return e.handlePingTick()
	case SocketReceive:
		return e.handleFrame(ev.Frame)
	case InternalEvent:
		return e.handleInternalEvent(ev.Value)
	case ResponseComplete:
		return e.handleResponseComplete(ev.Result)
	case CloseRequest:
		return nil, ErrCloseRequested
	default:
		// Unreachable while Event stays sealed to this package.
		return nil, nil
	}
}

// handlePingTick emits a keepalive ping, or fails the connection if
// the previous ping was never answered.
func (e *EventHandler) handlePingTick() (protocol.Frame, error) {
	if !e.pongReceived {
		return nil, ErrPingTimeout
	}

	ping := &protocol.Ping{
		Flags:      protocol.FlagNone,
		SequenceID: e.seq.Next(),
	}
	e.pongReceived = false
	return ping, nil
}

// handleFrame dispatches a frame received from the socket. Business
// frames are delegated to the Handler.
func (e *EventHandler) handleFrame(frame protocol.Frame) (protocol.Frame, error) {
	switch f := frame.(type) {
	case *protocol.Hello, *protocol.HelloAck:
		// Handshake completed before this engine existed.
		return nil, &InvalidOpcodeError{Actual: frame.Opcode()}
	case *protocol.Ping:
		return e.handlePingFrame(f)
	case *protocol.Pong:
		e.pongReceived = true
		return nil, nil
	case *protocol.GoAway:
		return nil, &GoAwayError{Frame: f}
	case *protocol.Request, *protocol.Response, *protocol.Push, *protocol.Error:
		return e.delegateFrame(frame)
	default:
		return nil, &InvalidOpcodeError{Actual: frame.Opcode()}
	}
}

// handlePingFrame answers a peer-initiated ping. Keepalive state is
// untouched; only locally-initiated pings participate in it.
func (e *EventHandler) handlePingFrame(ping *protocol.Ping) (protocol.Frame, error) {
	pong := &protocol.Pong{
		Flags:      ping.Flags,
		SequenceID: ping.SequenceID,
	}
	e.handler.HandlePing()
	return pong, nil
}

// delegateFrame hands a business frame to the Handler. If the Handler
// returns a pending computation, it runs concurrently and its result
// re-enters the engine as a ResponseComplete event.
func (e *EventHandler) delegateFrame(frame protocol.Frame) (protocol.Frame, error) {
	pending := e.handler.HandleFrame(frame, e.encoder)
	if pending != nil {
		sender := e.sender
		go func() {
			result := pending()
			// A send failure means the connection already closed.
			_ = sender.ResponseComplete(result)
		}()
	}
	return nil, nil
}

// handleResponseComplete forwards a computed response to the peer, or
// converts a failed computation into a wire Error frame. Request
// failures never terminate the connection.
func (e *EventHandler) handleResponseComplete(result ResponseResult) (protocol.Frame, error) {
	if result.Err == nil {
		if result.Response == nil {
			return nil, nil
		}
		return result.Response, nil
	}

	errFrame := &protocol.Error{
		Flags:      protocol.FlagNone,
		SequenceID: result.SequenceID,
		Code:       protocol.CodeInternalServerError,
		Payload:    []byte(result.Err.Error()),
	}
	return errFrame, nil
}

func (e *EventHandler) handleInternalEvent(value any) (protocol.Frame, error) {
	return e.handler.HandleInternalEvent(value, &e.seq, e.encoder), nil
}
