package network

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/quillwire/quill-node/pkg/protocol"
)

// handshakeTimeout bounds the whole Hello/HelloAck exchange.
const handshakeTimeout = 10 * time.Second

// ServerHandshake runs the accepting side of the handshake: read the
// Hello, pick the first mutually supported encoding, answer with a
// HelloAck announcing the keepalive interval. On success it returns
// the negotiated encoder and the connection fingerprint.
func ServerHandshake(conn net.Conn, factory EncoderFactory, pingInterval time.Duration) (Encoder, string, error) {
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}

	_ = conn.SetDeadline(time.Now().Add(handshakeTimeout))
	defer conn.SetDeadline(time.Time{})

	frame, err := protocol.ReadFrame(conn)
	if err != nil {
		if errors.Is(err, protocol.ErrInvalidVersion) {
			sendGoAway(conn, protocol.CodeUnsupportedVersion, "unsupported protocol version")
		}
		return nil, "", fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
	}

	hello, ok := frame.(*protocol.Hello)
	if !ok {
		sendGoAway(conn, protocol.CodeInvalidOp, "expected hello")
		return nil, "", fmt.Errorf("%w: %w", ErrHandshakeFailed,
			&InvalidOpcodeError{Actual: frame.Opcode(), Expected: []uint8{protocol.OpcodeHello}})
	}

	encoding := selectEncoding(hello.Encodings, factory.Encodings())
	if encoding == "" {
		sendGoAway(conn, protocol.CodeNoCommonEncoding, "no common encoding")
		return nil, "", fmt.Errorf("%w: %w", ErrHandshakeFailed, ErrNoCommonEncoding)
	}

	encoder, err := factory.Make(encoding)
	if err != nil {
		sendGoAway(conn, protocol.CodeNoCommonEncoding, "no common encoding")
		return nil, "", fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
	}

	ack := &protocol.HelloAck{
		PingIntervalMs: uint32(pingInterval / time.Millisecond),
		Encoding:       encoding,
	}
	if err := protocol.WriteFrame(conn, ack); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
	}

	fingerprint := Fingerprint(conn.LocalAddr().String(), conn.RemoteAddr().String(), encoding)
	return encoder, fingerprint, nil
}

// ClientHandshake runs the connecting side: send a Hello listing the
// encodings the factory supports, accept whatever the server picked.
// Returns the negotiated encoder, the server's ping interval and the
// connection fingerprint.
func ClientHandshake(conn net.Conn, factory EncoderFactory) (Encoder, time.Duration, string, error) {
	_ = conn.SetDeadline(time.Now().Add(handshakeTimeout))
	defer conn.SetDeadline(time.Time{})

	hello := &protocol.Hello{
		Version:   protocol.ProtocolVersion,
		Encodings: factory.Encodings(),
	}
	if err := protocol.WriteFrame(conn, hello); err != nil {
		return nil, 0, "", fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
	}

	frame, err := protocol.ReadFrame(conn)
	if err != nil {
		return nil, 0, "", fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
	}

	switch f := frame.(type) {
	case *protocol.HelloAck:
		encoder, err := factory.Make(f.Encoding)
		if err != nil {
			// Server picked something we never offered
			sendGoAway(conn, protocol.CodeInvalidEncoding, "invalid encoding")
			return nil, 0, "", fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
		}
		interval := time.Duration(f.PingIntervalMs) * time.Millisecond
		fingerprint := Fingerprint(conn.LocalAddr().String(), conn.RemoteAddr().String(), f.Encoding)
		return encoder, interval, fingerprint, nil

	case *protocol.GoAway:
		return nil, 0, "", fmt.Errorf("%w: %w", ErrHandshakeFailed, &GoAwayError{Frame: f})

	default:
		return nil, 0, "", fmt.Errorf("%w: %w", ErrHandshakeFailed,
			&InvalidOpcodeError{Actual: frame.Opcode(), Expected: []uint8{protocol.OpcodeHelloAck}})
	}
}

// selectEncoding returns the first of the client's encodings the
// server also supports, preserving client preference order.
func selectEncoding(client, server []string) string {
	for _, c := range client {
		for _, s := range server {
			if c == s {
				return c
			}
		}
	}
	return ""
}

func sendGoAway(conn net.Conn, code uint16, reason string) {
	_ = protocol.WriteFrame(conn, &protocol.GoAway{Code: code, Payload: []byte(reason)})
}
