package codec

import (
	"errors"
	"testing"
)

func TestJSONEncoderRoundTrip(t *testing.T) {
	enc := JSONEncoder{}

	payload, err := enc.Encode(map[string]any{"kind": "greeting", "n": float64(3)})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	value, err := enc.Decode(payload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	m, ok := value.(map[string]any)
	if !ok {
		t.Fatalf("Decode returned %T, want map", value)
	}
	if m["kind"] != "greeting" || m["n"] != float64(3) {
		t.Errorf("Decode returned %v", m)
	}
}

func TestJSONEncoderRejectsGarbage(t *testing.T) {
	if _, err := (JSONEncoder{}).Decode([]byte("{not json")); err == nil {
		t.Error("Decode accepted malformed input")
	}
}

func TestRawEncoder(t *testing.T) {
	enc := RawEncoder{}

	payload, err := enc.Encode("hello")
	if err != nil {
		t.Fatalf("Encode(string) failed: %v", err)
	}
	if string(payload) != "hello" {
		t.Errorf("Encode(string) = %q", payload)
	}

	payload, err = enc.Encode([]byte{0x00, 0xff})
	if err != nil {
		t.Fatalf("Encode([]byte) failed: %v", err)
	}
	if len(payload) != 2 {
		t.Errorf("Encode([]byte) = %v", payload)
	}

	if _, err := enc.Encode(42); err == nil {
		t.Error("Encode(int) should fail")
	}

	value, err := enc.Decode([]byte("bytes"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if string(value.([]byte)) != "bytes" {
		t.Errorf("Decode = %v", value)
	}
}

func TestFactoryDefaults(t *testing.T) {
	f := NewFactory()

	encodings := f.Encodings()
	if len(encodings) != 2 || encodings[0] != "json" || encodings[1] != "raw" {
		t.Fatalf("default Encodings() = %v", encodings)
	}

	// Callers must not be able to mutate the preference order
	encodings[0] = "mutated"
	if f.Encodings()[0] != "json" {
		t.Error("Encodings() leaked internal state")
	}
}

func TestFactoryMake(t *testing.T) {
	f := NewFactory("raw")

	enc, err := f.Make("raw")
	if err != nil {
		t.Fatalf("Make(raw) failed: %v", err)
	}
	if enc.Name() != "raw" {
		t.Errorf("Name() = %q", enc.Name())
	}

	// json exists but was not configured
	if _, err := f.Make("json"); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("Make(json) = %v, want ErrUnknownEncoding", err)
	}

	if _, err := f.Make("msgpack"); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("Make(msgpack) = %v, want ErrUnknownEncoding", err)
	}
}
