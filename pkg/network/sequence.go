package network

// IdSequence produces monotonically increasing sequence ids for
// frames this side initiates. It wraps at the uint32 boundary and
// guarantees nothing beyond one wrap period. Not safe for concurrent
// use; the engine owns it and lends it to Handler calls on the same
// goroutine.
type IdSequence struct {
	current uint32
}

// Next returns the next sequence id. The first id issued is 1.
func (s *IdSequence) Next() uint32 {
	s.current++
	return s.current
}
