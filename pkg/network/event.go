package network

import "github.com/quillwire/quill-node/pkg/protocol"

// Event is one unit of input to the connection engine. Exactly one
// event is processed at a time, on the connection's run loop.
type Event interface {
	isEvent()
}

// PingTick signals that the local keepalive timer fired.
type PingTick struct{}

// SocketReceive carries a frame read from the peer.
type SocketReceive struct {
	Frame protocol.Frame
}

// InternalEvent carries an application-defined value, opaque to the
// engine, interpreted by the connection's Handler.
type InternalEvent struct {
	Value any
}

// ResponseComplete signals that a previously delegated computation
// finished.
type ResponseComplete struct {
	Result ResponseResult
}

// CloseRequest asks the engine to terminate the connection.
type CloseRequest struct{}

func (PingTick) isEvent()         {}
func (SocketReceive) isEvent()    {}
func (InternalEvent) isEvent()    {}
func (ResponseComplete) isEvent() {}
func (CloseRequest) isEvent()     {}

// ResponseResult is the outcome of a delegated computation. On
// success Response is set; on failure Err and SequenceID identify the
// failed request.
type ResponseResult struct {
	Response   *protocol.Response
	Err        error
	SequenceID uint32
}
