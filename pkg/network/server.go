package network

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quillwire/quill-node/pkg/protocol"
)

var (
	ErrServerClosed   = errors.New("server closed")
	ErrUnknownPeer    = errors.New("unknown peer")
	ErrAlreadyStarted = errors.New("server already started")
)

// RequestHandler is the business logic a Server runs behind its
// connections.
type RequestHandler interface {
	// ServeRequest computes the response for one decoded request. It
	// runs on its own goroutine per request, so many may be in flight
	// concurrently; blocking here never stalls the connection.
	ServeRequest(value any, encoder Encoder) (any, error)

	// ServePush reacts to a one-way message. from identifies the
	// connection that delivered it. Runs on the connection's run loop
	// and should return quickly.
	ServePush(from string, value any)
}

// OutboundPush is an internal event value instructing a connection to
// emit a server-initiated Push frame.
type OutboundPush struct {
	Value any
}

// serverHandler adapts a RequestHandler to the engine's Handler
// contract.
type serverHandler struct {
	requests    RequestHandler
	fingerprint string
}

func (h *serverHandler) HandleFrame(frame protocol.Frame, encoder Encoder) Pending {
	switch f := frame.(type) {
	case *protocol.Request:
		seqID := f.SequenceID
		payload := f.Payload
		return func() ResponseResult {
			value, err := encoder.Decode(payload)
			if err != nil {
				return ResponseResult{Err: fmt.Errorf("decode request: %w", err), SequenceID: seqID}
			}
			out, err := h.requests.ServeRequest(value, encoder)
			if err != nil {
				return ResponseResult{Err: err, SequenceID: seqID}
			}
			body, err := encoder.Encode(out)
			if err != nil {
				return ResponseResult{Err: fmt.Errorf("encode response: %w", err), SequenceID: seqID}
			}
			return ResponseResult{Response: &protocol.Response{SequenceID: seqID, Payload: body}}
		}

	case *protocol.Push:
		value, err := encoder.Decode(f.Payload)
		if err != nil {
			log.Warn().Err(err).Msg("dropping undecodable push")
			return nil
		}
		h.requests.ServePush(h.fingerprint, value)
		return nil

	case *protocol.Error:
		log.Warn().
			Uint32("sequence_id", f.SequenceID).
			Uint16("code", f.Code).
			Str("message", f.Message()).
			Msg("peer reported request error")
		return nil

	default:
		// Response frames are not expected on the serving side
		log.Warn().Str("opcode", protocol.OpcodeName(frame.Opcode())).Msg("ignoring unexpected frame")
		return nil
	}
}

func (h *serverHandler) HandlePing() {}

func (h *serverHandler) HandleInternalEvent(value any, _ *IdSequence, encoder Encoder) protocol.Frame {
	push, ok := value.(OutboundPush)
	if !ok {
		log.Warn().Msgf("ignoring internal event of type %T", value)
		return nil
	}

	body, err := encoder.Encode(push.Value)
	if err != nil {
		log.Warn().Err(err).Msg("dropping unencodable outbound push")
		return nil
	}
	return &protocol.Push{Payload: body}
}

// Server accepts Quill connections and runs one engine per peer.
type Server struct {
	addr         string
	factory      EncoderFactory
	requests     RequestHandler
	pingInterval time.Duration

	listener net.Listener
	started  time.Time

	mu     sync.RWMutex
	conns  map[string]*Connection
	closed bool
}

// NewServer creates a server. pingInterval <= 0 selects the default.
func NewServer(addr string, factory EncoderFactory, requests RequestHandler, pingInterval time.Duration) *Server {
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}
	return &Server{
		addr:         addr,
		factory:      factory,
		requests:     requests,
		pingInterval: pingInterval,
		conns:        make(map[string]*Connection),
	}
}

// Start begins listening and accepting connections.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return ErrAlreadyStarted
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}

	RegisterMetrics()

	s.listener = listener
	s.started = time.Now()

	log.Info().Str("addr", listener.Addr().String()).Msg("server listening")

	go s.acceptLoop()
	return nil
}

// Addr returns the bound listener address. Valid after Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.RLock()
			closed := s.closed
			s.mu.RUnlock()
			if !closed {
				log.Error().Err(err).Msg("accept error")
			}
			return
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handshakes one peer and runs its engine to
// completion.
func (s *Server) handleConnection(conn net.Conn) {
	encoder, fingerprint, err := ServerHandshake(conn, s.factory, s.pingInterval)
	if err != nil {
		log.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("handshake failed")
		_ = conn.Close()
		return
	}

	log.Info().
		Str("conn", fingerprint).
		Str("remote", conn.RemoteAddr().String()).
		Str("encoding", encoder.Name()).
		Msg("peer connected")

	handler := &serverHandler{requests: s.requests, fingerprint: fingerprint}
	c := NewConnection(conn, handler, encoder, s.pingInterval, fingerprint)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conns[fingerprint] = c
	s.mu.Unlock()

	c.Start()
	<-c.Done()

	s.mu.Lock()
	delete(s.conns, fingerprint)
	s.mu.Unlock()

	log.Info().Str("conn", fingerprint).Msg("peer disconnected")
}

// Push sends a server-initiated push to one connected peer.
func (s *Server) Push(fingerprint string, value any) error {
	s.mu.RLock()
	c, ok := s.conns[fingerprint]
	s.mu.RUnlock()

	if !ok {
		return ErrUnknownPeer
	}
	return c.Sender().Internal(OutboundPush{Value: value})
}

// ActiveConnections returns how many peers are currently connected.
func (s *Server) ActiveConnections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// Fingerprints lists the identifiers of the connected peers.
func (s *Server) Fingerprints() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.conns))
	for fp := range s.conns {
		out = append(out, fp)
	}
	return out
}

// Uptime reports how long the server has been accepting connections.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.started.IsZero() {
		return 0
	}
	return time.Since(s.started)
}

// Stop closes the listener and asks every connection to shut down.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.closed = true
	listener := s.listener
	conns := make([]*Connection, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	if listener != nil {
		_ = listener.Close()
	}

	for _, c := range conns {
		// Best effort; a torn-down connection rejects the event
		_ = c.Sender().Close()
	}

	log.Info().Msg("server stopped")
	return nil
}
