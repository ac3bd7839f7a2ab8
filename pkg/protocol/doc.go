// Package protocol implements the Quill wire protocol.
//
// Quill is a connection-oriented binary request/response protocol with
// support for pipelining: many requests may be in flight on one
// connection at once, and responses are correlated back to their
// requests by sequence id rather than by ordering.
//
// # Frame Types
//
// The protocol defines nine frame types:
//
// Handshake (valid only before a connection is ready):
//   - Hello: sent by the connecting side, lists supported payload encodings
//   - HelloAck: sent by the accepting side, picks the encoding and
//     announces the keepalive interval
//
// Keepalive:
//   - Ping/Pong: either side may ping; the pong echoes the ping's flags
//     and sequence id
//
// Business traffic:
//   - Request: expects a Response with the same sequence id
//   - Response: result of a Request
//   - Push: one-way message, no response expected
//   - Error: reports a failed request, carries a numeric code
//
// Termination:
//   - GoAway: tells the peer to close the connection, carries a close
//     code and an optional reason
//
// # Header Format
//
// Every frame starts with a 16-byte header:
//   - Magic (4 bytes): protocol identifier (0x51494C4C = "QILL")
//   - Version (1 byte): protocol version (currently 1)
//   - Opcode (1 byte): frame type
//   - Flags (1 byte): per-frame flags
//   - Reserved (1 byte): must be zero
//   - SequenceID (4 bytes): correlation id, zero where not applicable
//   - Length (4 bytes): payload length
//
// All multi-byte fields use big-endian byte order. Variable-length
// frame bodies follow the header directly.
//
// # Payload Encoding
//
// The protocol itself treats Request, Response and Push payloads as
// opaque bytes. The encoding applied to them (JSON, raw bytes, ...) is
// negotiated during the handshake and handled above this package.
package protocol
