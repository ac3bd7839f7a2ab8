package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	ErrInvalidMagic    = errors.New("invalid protocol magic")
	ErrInvalidVersion  = errors.New("unsupported protocol version")
	ErrInvalidHeader   = errors.New("invalid header")
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size")
	ErrUnknownOpcode   = errors.New("unknown opcode")
	ErrBodyTooShort    = errors.New("frame body too short")
)

// Header represents the fixed 16-byte frame header
type Header struct {
	Magic      uint32 // Magic number (0x51494C4C)
	Version    uint8  // Protocol version
	Opcode     uint8  // Frame type
	Flags      uint8  // Per-frame flags
	Reserved   uint8  // Reserved for future use
	SequenceID uint32 // Correlation id (zero where not applicable)
	Length     uint32 // Payload length
}

// Encode encodes the header to bytes
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)

	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.Version
	buf[5] = h.Opcode
	buf[6] = h.Flags
	buf[7] = h.Reserved
	binary.BigEndian.PutUint32(buf[8:12], h.SequenceID)
	binary.BigEndian.PutUint32(buf[12:16], h.Length)

	return buf
}

// Decode decodes the header from bytes
func (h *Header) Decode(buf []byte) error {
	if len(buf) < HeaderSize {
		return ErrInvalidHeader
	}

	h.Magic = binary.BigEndian.Uint32(buf[0:4])
	h.Version = buf[4]
	h.Opcode = buf[5]
	h.Flags = buf[6]
	h.Reserved = buf[7]
	h.SequenceID = binary.BigEndian.Uint32(buf[8:12])
	h.Length = binary.BigEndian.Uint32(buf[12:16])

	return nil
}

// Validate validates the header
func (h *Header) Validate() error {
	if h.Magic != ProtocolMagic {
		return ErrInvalidMagic
	}

	if h.Version != ProtocolVersion {
		return ErrInvalidVersion
	}

	if h.Length > MaxPayloadSize {
		return ErrPayloadTooLarge
	}

	return nil
}

// EncodeFrame encodes a frame to its full wire representation
// (header followed by body).
func EncodeFrame(frame Frame) ([]byte, error) {
	header := Header{
		Magic:   ProtocolMagic,
		Version: ProtocolVersion,
		Opcode:  frame.Opcode(),
	}

	var body []byte

	switch f := frame.(type) {
	case *Hello:
		header.Flags = f.Flags
		if f.Version != 0 {
			header.Version = f.Version
		}
		body = []byte(JoinEncodings(f.Encodings))

	case *HelloAck:
		header.Flags = f.Flags
		body = make([]byte, 4+len(f.Encoding))
		binary.BigEndian.PutUint32(body[0:4], f.PingIntervalMs)
		copy(body[4:], f.Encoding)

	case *Ping:
		header.Flags = f.Flags
		header.SequenceID = f.SequenceID

	case *Pong:
		header.Flags = f.Flags
		header.SequenceID = f.SequenceID

	case *Request:
		header.Flags = f.Flags
		header.SequenceID = f.SequenceID
		body = f.Payload

	case *Response:
		header.Flags = f.Flags
		header.SequenceID = f.SequenceID
		body = f.Payload

	case *Push:
		header.Flags = f.Flags
		body = f.Payload

	case *GoAway:
		header.Flags = f.Flags
		body = make([]byte, 2+len(f.Payload))
		binary.BigEndian.PutUint16(body[0:2], f.Code)
		copy(body[2:], f.Payload)

	case *Error:
		header.Flags = f.Flags
		header.SequenceID = f.SequenceID
		body = make([]byte, 2+len(f.Payload))
		binary.BigEndian.PutUint16(body[0:2], f.Code)
		copy(body[2:], f.Payload)

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownOpcode, frame)
	}

	if len(body) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	header.Length = uint32(len(body))

	buf := make([]byte, 0, HeaderSize+len(body))
	buf = append(buf, header.Encode()...)
	buf = append(buf, body...)

	return buf, nil
}

// DecodeFrame decodes a frame from a validated header and its body
func DecodeFrame(header *Header, body []byte) (Frame, error) {
	if uint32(len(body)) != header.Length {
		return nil, ErrBodyTooShort
	}

	switch header.Opcode {
	case OpcodeHello:
		return &Hello{
			Flags:     header.Flags,
			Version:   header.Version,
			Encodings: SplitEncodings(string(body)),
		}, nil

	case OpcodeHelloAck:
		if len(body) < 4 {
			return nil, ErrBodyTooShort
		}
		return &HelloAck{
			Flags:          header.Flags,
			PingIntervalMs: binary.BigEndian.Uint32(body[0:4]),
			Encoding:       string(body[4:]),
		}, nil

	case OpcodePing:
		return &Ping{Flags: header.Flags, SequenceID: header.SequenceID}, nil

	case OpcodePong:
		return &Pong{Flags: header.Flags, SequenceID: header.SequenceID}, nil

	case OpcodeRequest:
		return &Request{
			Flags:      header.Flags,
			SequenceID: header.SequenceID,
			Payload:    body,
		}, nil

	case OpcodeResponse:
		return &Response{
			Flags:      header.Flags,
			SequenceID: header.SequenceID,
			Payload:    body,
		}, nil

	case OpcodePush:
		return &Push{Flags: header.Flags, Payload: body}, nil

	case OpcodeGoAway:
		if len(body) < 2 {
			return nil, ErrBodyTooShort
		}
		return &GoAway{
			Flags:   header.Flags,
			Code:    binary.BigEndian.Uint16(body[0:2]),
			Payload: body[2:],
		}, nil

	case OpcodeError:
		if len(body) < 2 {
			return nil, ErrBodyTooShort
		}
		return &Error{
			Flags:      header.Flags,
			SequenceID: header.SequenceID,
			Code:       binary.BigEndian.Uint16(body[0:2]),
			Payload:    body[2:],
		}, nil

	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownOpcode, header.Opcode)
	}
}

// ReadFrame reads one complete frame from an io.Reader
func ReadFrame(r io.Reader) (Frame, error) {
	buf := make([]byte, HeaderSize)

	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	header := &Header{}
	if err := header.Decode(buf); err != nil {
		return nil, err
	}

	if err := header.Validate(); err != nil {
		return nil, err
	}

	body := make([]byte, header.Length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	return DecodeFrame(header, body)
}

// WriteFrame writes one complete frame to an io.Writer
func WriteFrame(w io.Writer, frame Frame) error {
	buf, err := EncodeFrame(frame)
	if err != nil {
		return err
	}

	_, err = w.Write(buf)
	return err
}
