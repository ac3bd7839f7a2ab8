// Package codec provides the built-in payload encoders negotiated by
// the Quill handshake.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/quillwire/quill-node/pkg/network"
)

var ErrUnknownEncoding = errors.New("unknown encoding")

// JSONEncoder marshals payloads with encoding/json. It is stateless
// and therefore safe for the concurrent reads the engine requires.
type JSONEncoder struct{}

func (JSONEncoder) Name() string { return "json" }

func (JSONEncoder) Encode(value any) ([]byte, error) {
	return json.Marshal(value)
}

func (JSONEncoder) Decode(payload []byte) (any, error) {
	var value any
	if err := json.Unmarshal(payload, &value); err != nil {
		return nil, err
	}
	return value, nil
}

// RawEncoder passes byte payloads through untouched. Strings are
// converted on encode; decode always yields []byte.
type RawEncoder struct{}

func (RawEncoder) Name() string { return "raw" }

func (RawEncoder) Encode(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("raw encoder: unsupported type %T", value)
	}
}

func (RawEncoder) Decode(payload []byte) (any, error) {
	return payload, nil
}

// Factory serves the built-in encoders in a configurable preference
// order.
type Factory struct {
	preferred []string
}

// NewFactory creates a factory preferring the given encodings. With
// no arguments it supports json then raw.
func NewFactory(encodings ...string) *Factory {
	if len(encodings) == 0 {
		encodings = []string{"json", "raw"}
	}
	return &Factory{preferred: encodings}
}

func (f *Factory) Encodings() []string {
	out := make([]string, len(f.preferred))
	copy(out, f.preferred)
	return out
}

func (f *Factory) Make(encoding string) (network.Encoder, error) {
	supported := false
	for _, e := range f.preferred {
		if e == encoding {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}

	switch encoding {
	case "json":
		return JSONEncoder{}, nil
	case "raw":
		return RawEncoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
}
