package network

import "github.com/quillwire/quill-node/pkg/protocol"

// Pending is a deferred computation started by a Handler. The engine
// runs it on its own goroutine and reinjects the result as a
// ResponseComplete event; it must not touch engine-owned state.
type Pending func() ResponseResult

// Handler is the pluggable business logic behind a connection. All
// methods are called from the connection's run loop, one at a time.
type Handler interface {
	// HandleFrame reacts to a delegated frame (Request, Response, Push
	// or Error). Returning nil means nothing is pending; returning a
	// Pending schedules it to run concurrently.
	HandleFrame(frame protocol.Frame, encoder Encoder) Pending

	// HandlePing is notified whenever the peer pings us. The engine
	// answers the ping itself; this is a side effect hook only.
	HandlePing()

	// HandleInternalEvent reacts to an application-defined event. It
	// may allocate sequence ids from seq to originate correlated
	// outbound frames. A non-nil return value is sent to the peer
	// unmodified.
	HandleInternalEvent(value any, seq *IdSequence, encoder Encoder) protocol.Frame
}

// Encoder turns application values into frame payloads and back.
//
// An Encoder is lent by reference both to the run loop and to any
// number of in-flight Pending goroutines, so implementations must be
// safe for concurrent use; stateless implementations satisfy this for
// free.
type Encoder interface {
	Name() string
	Encode(value any) ([]byte, error)
	Decode(payload []byte) (any, error)
}

// EncoderFactory supplies the encodings a side supports and builds
// the Encoder for the one the handshake settles on.
type EncoderFactory interface {
	// Encodings lists supported encoding names in preference order.
	Encodings() []string

	// Make returns an encoder for the named encoding.
	Make(encoding string) (Encoder, error)
}
