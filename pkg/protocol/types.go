package protocol

// Protocol constants
const (
	// Magic number for the Quill protocol ('QILL')
	ProtocolMagic = 0x51494C4C

	// Protocol version
	ProtocolVersion uint8 = 1

	// Header size
	HeaderSize = 16

	// Maximum allowed payload size (16 MiB)
	MaxPayloadSize = 16 << 20
)

// Opcodes
const (
	OpcodeHello uint8 = iota + 1
	OpcodeHelloAck
	OpcodePing
	OpcodePong
	OpcodeRequest
	OpcodeResponse
	OpcodePush
	OpcodeGoAway
	OpcodeError
)

// Close and error codes, carried by GoAway and Error frames
const (
	// CodeNormal is sent when the connection is closing cleanly
	CodeNormal uint16 = iota

	// CodeInvalidOp is sent when a frame arrives with an opcode that is
	// not valid in the connection's current state
	CodeInvalidOp

	// CodeUnsupportedVersion is sent when the peer speaks a protocol
	// version this side does not support
	CodeUnsupportedVersion

	// CodeNoCommonEncoding is sent when handshake negotiation finds no
	// payload encoding both sides support
	CodeNoCommonEncoding

	// CodeInvalidEncoding is sent when the accepting side picked an
	// encoding the connecting side never offered
	CodeInvalidEncoding

	// CodePingTimeout is sent when a keepalive ping was never answered
	CodePingTimeout

	// CodeInternalServerError is sent when a single request fails; the
	// connection stays open
	CodeInternalServerError
)

// Flags
const (
	FlagNone       uint8 = 0
	FlagCompressed uint8 = 1 << 0 // Payload is compressed
)

// opcodeNames maps opcodes to their wire protocol names
var opcodeNames = map[uint8]string{
	OpcodeHello:    "hello",
	OpcodeHelloAck: "hello_ack",
	OpcodePing:     "ping",
	OpcodePong:     "pong",
	OpcodeRequest:  "request",
	OpcodeResponse: "response",
	OpcodePush:     "push",
	OpcodeGoAway:   "go_away",
	OpcodeError:    "error",
}

// OpcodeName returns a human-readable name for an opcode
func OpcodeName(opcode uint8) string {
	if name, ok := opcodeNames[opcode]; ok {
		return name
	}
	return "unknown"
}
