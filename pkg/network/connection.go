package network

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quillwire/quill-node/pkg/protocol"
)

const (
	// DefaultPingInterval is the keepalive interval announced by
	// servers that were not configured with one.
	DefaultPingInterval = 30 * time.Second

	// eventBufferSize bounds how many reinjected/read events can queue
	// before posters block.
	eventBufferSize = 64

	// goAwayTimeout bounds the best-effort GoAway write at teardown.
	goAwayTimeout = 2 * time.Second
)

// Connection is the transport loop around one engine: it reads frames
// off the socket, multiplexes them with the keepalive ticker and
// reinjected events, and writes whatever the engine returns.
type Connection struct {
	conn         net.Conn
	engine       *EventHandler
	events       chan Event
	done         chan struct{}
	pingInterval time.Duration
	fingerprint  string

	closeOnce sync.Once
	closeErr  error
}

// NewConnection wires an engine to an established, handshaken socket.
// Call Start to begin processing.
func NewConnection(conn net.Conn, handler Handler, encoder Encoder, pingInterval time.Duration, fingerprint string) *Connection {
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}

	events := make(chan Event, eventBufferSize)
	done := make(chan struct{})

	c := &Connection{
		conn:         conn,
		events:       events,
		done:         done,
		pingInterval: pingInterval,
		fingerprint:  fingerprint,
	}
	c.engine = NewEventHandler(Sender{events: events, done: done}, handler, encoder)

	return c
}

// Start launches the read and run loops.
func (c *Connection) Start() {
	activeConnections.Inc()
	log.Debug().
		Str("conn", c.fingerprint).
		Str("remote", c.conn.RemoteAddr().String()).
		Msg("connection started")

	go c.readLoop()
	go c.runLoop()
}

// Sender returns a handle for posting events into this connection.
func (c *Connection) Sender() Sender {
	return Sender{events: c.events, done: c.done}
}

// Fingerprint returns the connection's diagnostic identifier.
func (c *Connection) Fingerprint() string {
	return c.fingerprint
}

// RemoteAddr returns the peer's address.
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Done is closed when the connection has fully terminated.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Err returns the terminal error. Valid after Done is closed.
func (c *Connection) Err() error {
	select {
	case <-c.done:
		return c.closeErr
	default:
		return nil
	}
}

// Close requests a clean shutdown through the ordinary event path.
func (c *Connection) Close() error {
	if err := c.Sender().Close(); err != nil {
		// Already torn down
		return nil
	}
	<-c.done
	return nil
}

// readLoop decodes inbound frames into events until the socket fails.
func (c *Connection) readLoop() {
	for {
		frame, err := protocol.ReadFrame(c.conn)
		if err != nil {
			c.teardown(err)
			return
		}

		select {
		case c.events <- SocketReceive{Frame: frame}:
		case <-c.done:
			return
		}
	}
}

// runLoop is the single goroutine that may call the engine.
func (c *Connection) runLoop() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case event := <-c.events:
			if !c.dispatch(event) {
				return
			}
		case <-ticker.C:
			if !c.dispatch(PingTick{}) {
				return
			}
		}
	}
}

// dispatch feeds one event to the engine and writes the resulting
// frame, if any. Returns false when the connection is over.
func (c *Connection) dispatch(event Event) bool {
	switch ev := event.(type) {
	case SocketReceive:
		framesReceived.WithLabelValues(protocol.OpcodeName(ev.Frame.Opcode())).Inc()
	case ResponseComplete:
		if ev.Result.Err != nil {
			requestFailures.Inc()
		}
	}

	frame, err := c.engine.HandleEvent(event)

	if frame != nil {
		if werr := protocol.WriteFrame(c.conn, frame); werr != nil {
			c.teardown(werr)
			return false
		}
		framesSent.WithLabelValues(protocol.OpcodeName(frame.Opcode())).Inc()
	}

	if err != nil {
		c.teardown(err)
		return false
	}

	return true
}

// teardown ends the connection exactly once: best-effort GoAway for
// locally-detected protocol failures, then socket close.
func (c *Connection) teardown(err error) {
	c.closeOnce.Do(func() {
		c.closeErr = err

		if shouldNotifyPeer(err) {
			goAway := &protocol.GoAway{
				Code:    CloseCode(err),
				Payload: []byte(err.Error()),
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(goAwayTimeout))
			_ = protocol.WriteFrame(c.conn, goAway)
		}

		close(c.done)
		_ = c.conn.Close()
		activeConnections.Dec()

		if err == nil || errors.Is(err, ErrCloseRequested) || errors.Is(err, io.EOF) {
			log.Debug().Str("conn", c.fingerprint).Msg("connection closed")
		} else {
			log.Warn().Str("conn", c.fingerprint).Err(err).Msg("connection terminated")
		}
	})
}

// shouldNotifyPeer reports whether teardown should announce the close
// with a GoAway. Peer-initiated GoAways and plain socket failures get
// nothing back.
func shouldNotifyPeer(err error) bool {
	var invalidOp *InvalidOpcodeError
	return errors.Is(err, ErrPingTimeout) ||
		errors.Is(err, ErrCloseRequested) ||
		errors.As(err, &invalidOp)
}
