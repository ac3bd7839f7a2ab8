package network

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/quillwire/quill-node/pkg/protocol"
)

// RequestError is the client-side rendering of a wire Error frame:
// the request failed but the connection is still healthy.
type RequestError struct {
	Code    uint16
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed: code=%d %s", e.Code, e.Message)
}

// outboundRequest asks the client handler to originate a Request
// frame and route its eventual outcome to reply.
type outboundRequest struct {
	value any
	reply chan clientResult
}

// outboundPush asks the client handler to originate a Push frame.
type outboundPush struct {
	value any
}

type clientResult struct {
	value any
	err   error
}

// clientHandler correlates responses back to callers by sequence id.
// The waiter map is touched from the run loop and from Request
// callers' teardown path, hence the lock; engine state itself stays
// lock-free.
type clientHandler struct {
	mu      sync.Mutex
	waiters map[uint32]chan clientResult
	onPush  func(any)
}

func newClientHandler(onPush func(any)) *clientHandler {
	return &clientHandler{
		waiters: make(map[uint32]chan clientResult),
		onPush:  onPush,
	}
}

func (h *clientHandler) HandleFrame(frame protocol.Frame, encoder Encoder) Pending {
	switch f := frame.(type) {
	case *protocol.Response:
		value, err := encoder.Decode(f.Payload)
		h.deliver(f.SequenceID, clientResult{value: value, err: err})

	case *protocol.Error:
		h.deliver(f.SequenceID, clientResult{err: &RequestError{Code: f.Code, Message: f.Message()}})

	case *protocol.Push:
		if h.onPush == nil {
			return nil
		}
		value, err := encoder.Decode(f.Payload)
		if err != nil {
			log.Warn().Err(err).Msg("dropping undecodable push")
			return nil
		}
		h.onPush(value)

	default:
		// Inbound Request frames would make this a server
		log.Warn().Str("opcode", protocol.OpcodeName(frame.Opcode())).Msg("ignoring unexpected frame")
	}
	return nil
}

func (h *clientHandler) HandlePing() {}

func (h *clientHandler) HandleInternalEvent(value any, seq *IdSequence, encoder Encoder) protocol.Frame {
	switch ev := value.(type) {
	case outboundRequest:
		body, err := encoder.Encode(ev.value)
		if err != nil {
			ev.reply <- clientResult{err: fmt.Errorf("encode request: %w", err)}
			return nil
		}

		id := seq.Next()
		h.mu.Lock()
		h.waiters[id] = ev.reply
		h.mu.Unlock()

		return &protocol.Request{SequenceID: id, Payload: body}

	case outboundPush:
		body, err := encoder.Encode(ev.value)
		if err != nil {
			log.Warn().Err(err).Msg("dropping unencodable push")
			return nil
		}
		return &protocol.Push{Payload: body}

	default:
		log.Warn().Msgf("ignoring internal event of type %T", value)
		return nil
	}
}

// deliver completes the waiter for a sequence id, if one exists.
// Reply channels are buffered, so delivery never blocks the run loop.
func (h *clientHandler) deliver(id uint32, result clientResult) {
	h.mu.Lock()
	reply, ok := h.waiters[id]
	delete(h.waiters, id)
	h.mu.Unlock()

	if !ok {
		log.Debug().Uint32("sequence_id", id).Msg("response for unknown request")
		return
	}
	reply <- result
}

// failAll completes every outstanding waiter with err.
func (h *clientHandler) failAll(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, reply := range h.waiters {
		reply <- clientResult{err: err}
		delete(h.waiters, id)
	}
}

// Client is one Quill connection used from the initiating side.
// Requests may be pipelined from any number of goroutines; each is
// correlated by its sequence id.
type Client struct {
	conn    *Connection
	encoder Encoder
	handler *clientHandler
}

// Dial connects, handshakes and starts the connection. onPush, if
// non-nil, is invoked for every push the server sends; it runs on the
// connection's run loop.
func Dial(addr string, factory EncoderFactory, onPush func(any)) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	encoder, pingInterval, fingerprint, err := ClientHandshake(conn, factory)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Info().
		Str("conn", fingerprint).
		Str("remote", conn.RemoteAddr().String()).
		Str("encoding", encoder.Name()).
		Msg("connected")

	handler := newClientHandler(onPush)
	c := NewConnection(conn, handler, encoder, pingInterval, fingerprint)
	c.Start()

	client := &Client{conn: c, encoder: encoder, handler: handler}

	go func() {
		<-c.Done()
		handler.failAll(ErrConnectionClosed)
	}()

	return client, nil
}

// Request sends one request and waits for its response or error
// frame. Abandoning the context leaves the late response to be
// discarded when it arrives.
func (c *Client) Request(ctx context.Context, value any) (any, error) {
	reply := make(chan clientResult, 1)

	if err := c.conn.Sender().Internal(outboundRequest{value: value, reply: reply}); err != nil {
		return nil, err
	}

	select {
	case result := <-reply:
		return result.value, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.conn.Done():
		return nil, ErrConnectionClosed
	}
}

// Push sends a one-way message. No response is expected.
func (c *Client) Push(value any) error {
	return c.conn.Sender().Internal(outboundPush{value: value})
}

// Fingerprint returns the connection's diagnostic identifier.
func (c *Client) Fingerprint() string {
	return c.conn.Fingerprint()
}

// Done is closed when the underlying connection has terminated.
func (c *Client) Done() <-chan struct{} {
	return c.conn.Done()
}

// Close shuts the connection down cleanly.
func (c *Client) Close() error {
	return c.conn.Close()
}
