package protocol

import "strings"

// EncodingSeparator separates encoding names in a Hello payload
const EncodingSeparator = ","

// Frame is one discrete protocol message unit exchanged over a
// connection. Exactly one concrete frame type exists per opcode.
type Frame interface {
	Opcode() uint8
}

// Hello opens the handshake. It lists the payload encodings the
// connecting side supports, in preference order.
type Hello struct {
	Flags     uint8
	Version   uint8
	Encodings []string
}

// HelloAck completes the handshake. It names the encoding the
// accepting side picked and the interval at which it will ping.
type HelloAck struct {
	Flags          uint8
	PingIntervalMs uint32
	Encoding       string
}

// Ping is a keepalive probe. The peer must answer with a Pong echoing
// the flags and sequence id.
type Ping struct {
	Flags      uint8
	SequenceID uint32
}

// Pong answers a Ping.
type Pong struct {
	Flags      uint8
	SequenceID uint32
}

// Request carries a business payload and expects a Response or Error
// with the same sequence id.
type Request struct {
	Flags      uint8
	SequenceID uint32
	Payload    []byte
}

// Response carries the result of a Request.
type Response struct {
	Flags      uint8
	SequenceID uint32
	Payload    []byte
}

// Push carries a one-way business payload. No response is expected.
type Push struct {
	Flags   uint8
	Payload []byte
}

// GoAway tells the peer to terminate the connection.
type GoAway struct {
	Flags   uint8
	Code    uint16
	Payload []byte
}

// Error reports a failed request without closing the connection.
type Error struct {
	Flags      uint8
	SequenceID uint32
	Code       uint16
	Payload    []byte
}

func (f *Hello) Opcode() uint8    { return OpcodeHello }
func (f *HelloAck) Opcode() uint8 { return OpcodeHelloAck }
func (f *Ping) Opcode() uint8     { return OpcodePing }
func (f *Pong) Opcode() uint8     { return OpcodePong }
func (f *Request) Opcode() uint8  { return OpcodeRequest }
func (f *Response) Opcode() uint8 { return OpcodeResponse }
func (f *Push) Opcode() uint8     { return OpcodePush }
func (f *GoAway) Opcode() uint8   { return OpcodeGoAway }
func (f *Error) Opcode() uint8    { return OpcodeError }

// Reason returns the GoAway payload as a string for diagnostics.
func (f *GoAway) Reason() string {
	return string(f.Payload)
}

// Message returns the Error payload as a string for diagnostics.
func (f *Error) Message() string {
	return string(f.Payload)
}

// JoinEncodings encodes an encoding list for a Hello payload.
func JoinEncodings(encodings []string) string {
	return strings.Join(encodings, EncodingSeparator)
}

// SplitEncodings decodes an encoding list from a Hello payload.
func SplitEncodings(payload string) []string {
	if payload == "" {
		return nil
	}
	return strings.Split(payload, EncodingSeparator)
}
