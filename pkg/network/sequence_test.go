package network

import (
	"math"
	"testing"
)

func TestIdSequenceStartsAtOne(t *testing.T) {
	var seq IdSequence

	if got := seq.Next(); got != 1 {
		t.Errorf("first Next() = %d, want 1", got)
	}
	if got := seq.Next(); got != 2 {
		t.Errorf("second Next() = %d, want 2", got)
	}
}

func TestIdSequenceMonotonic(t *testing.T) {
	var seq IdSequence

	prev := seq.Next()
	for i := 0; i < 1000; i++ {
		next := seq.Next()
		if next != prev+1 {
			t.Fatalf("Next() = %d after %d, want %d", next, prev, prev+1)
		}
		prev = next
	}
}

func TestIdSequenceWraps(t *testing.T) {
	seq := IdSequence{current: math.MaxUint32}

	if got := seq.Next(); got != 0 {
		t.Errorf("Next() after MaxUint32 = %d, want 0", got)
	}
	if got := seq.Next(); got != 1 {
		t.Errorf("Next() after wrap = %d, want 1", got)
	}
}
