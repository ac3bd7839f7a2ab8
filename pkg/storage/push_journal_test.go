package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestJournal(t *testing.T, ttl time.Duration) *PushJournal {
	t.Helper()
	journal, err := NewPushJournal(filepath.Join(t.TempDir(), "journal.db"), ttl)
	if err != nil {
		t.Fatalf("NewPushJournal failed: %v", err)
	}
	t.Cleanup(func() { journal.Close() })
	return journal
}

func TestJournalAppendAndRecent(t *testing.T) {
	journal := newTestJournal(t, time.Hour)

	if err := journal.Append("peer-a", []byte("first")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := journal.Append("peer-b", []byte("second")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	pushes, err := journal.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(pushes) != 2 {
		t.Fatalf("Recent returned %d entries, want 2", len(pushes))
	}

	// Newest first
	if string(pushes[0].Payload) != "second" || pushes[0].Fingerprint != "peer-b" {
		t.Errorf("first entry = %q from %q", pushes[0].Payload, pushes[0].Fingerprint)
	}
	if string(pushes[1].Payload) != "first" {
		t.Errorf("second entry = %q", pushes[1].Payload)
	}
}

func TestJournalRecentLimit(t *testing.T) {
	journal := newTestJournal(t, time.Hour)

	for i := 0; i < 5; i++ {
		if err := journal.Append("peer", []byte{byte(i)}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	pushes, err := journal.Recent(3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(pushes) != 3 {
		t.Errorf("Recent(3) returned %d entries", len(pushes))
	}
}

func TestJournalCount(t *testing.T) {
	journal := newTestJournal(t, time.Hour)

	count, err := journal.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("empty journal Count = %d", count)
	}

	if err := journal.Append("peer", []byte("x")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	count, err = journal.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}
}

func TestJournalPurgeExpired(t *testing.T) {
	// Negative TTL makes every entry already expired
	journal := newTestJournal(t, -time.Hour)

	if err := journal.Append("peer", []byte("stale")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	purged, err := journal.PurgeExpired()
	if err != nil {
		t.Fatalf("PurgeExpired failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("PurgeExpired removed %d entries, want 1", purged)
	}

	count, _ := journal.Count()
	if count != 0 {
		t.Errorf("Count after purge = %d", count)
	}
}

func TestJournalPurgeKeepsFresh(t *testing.T) {
	journal := newTestJournal(t, time.Hour)

	if err := journal.Append("peer", []byte("fresh")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	purged, err := journal.PurgeExpired()
	if err != nil {
		t.Fatalf("PurgeExpired failed: %v", err)
	}
	if purged != 0 {
		t.Errorf("PurgeExpired removed %d fresh entries", purged)
	}
}
