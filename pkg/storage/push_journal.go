// Package storage provides node-local persistence for the Quill
// server.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// JournaledPush is one push payload recorded by the journal.
type JournaledPush struct {
	ID          int64
	Fingerprint string // Connection that delivered the push
	Payload     []byte
	Timestamp   int64 // When the push was journaled (unix seconds)
	ExpiresAt   int64 // When the entry expires (unix seconds)
}

// PushJournal records inbound push payloads in sqlite so they survive
// a restart. Entries expire after a TTL and are swept by a background
// goroutine.
type PushJournal struct {
	db     *sql.DB
	ttl    time.Duration
	closed chan struct{}
}

// NewPushJournal opens (or creates) a journal database.
// ttl: time-to-live for journaled pushes (default: 7 days)
func NewPushJournal(dbPath string, ttl time.Duration) (*PushJournal, error) {
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	journal := &PushJournal{
		db:     db,
		ttl:    ttl,
		closed: make(chan struct{}),
	}

	if err := journal.initSchema(); err != nil {
		return nil, err
	}

	go journal.sweepExpired()

	return journal, nil
}

// initSchema creates the database schema
func (j *PushJournal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS journaled_pushes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fingerprint TEXT NOT NULL,
		payload BLOB NOT NULL,
		timestamp INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);

	-- Index for lookup by connection
	CREATE INDEX IF NOT EXISTS idx_fingerprint ON journaled_pushes(fingerprint);

	-- Index for expiration sweep
	CREATE INDEX IF NOT EXISTS idx_expires ON journaled_pushes(expires_at);
	`

	if _, err := j.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Append records one push payload.
func (j *PushJournal) Append(fingerprint string, payload []byte) error {
	now := time.Now().Unix()
	expiresAt := now + int64(j.ttl.Seconds())

	query := `
		INSERT INTO journaled_pushes (fingerprint, payload, timestamp, expires_at)
		VALUES (?, ?, ?, ?)
	`

	if _, err := j.db.Exec(query, fingerprint, payload, now, expiresAt); err != nil {
		return fmt.Errorf("failed to journal push: %w", err)
	}

	return nil
}

// Recent returns the most recently journaled pushes, newest first.
func (j *PushJournal) Recent(limit int) ([]*JournaledPush, error) {
	query := `
		SELECT id, fingerprint, payload, timestamp, expires_at
		FROM journaled_pushes
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := j.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var pushes []*JournaledPush
	for rows.Next() {
		push := &JournaledPush{}
		if err := rows.Scan(&push.ID, &push.Fingerprint, &push.Payload, &push.Timestamp, &push.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		pushes = append(pushes, push)
	}

	return pushes, rows.Err()
}

// Count returns how many entries the journal currently holds.
func (j *PushJournal) Count() (int64, error) {
	var count int64
	err := j.db.QueryRow(`SELECT COUNT(*) FROM journaled_pushes`).Scan(&count)
	return count, err
}

// PurgeExpired removes entries past their TTL and reports how many
// were deleted.
func (j *PushJournal) PurgeExpired() (int64, error) {
	result, err := j.db.Exec(`DELETE FROM journaled_pushes WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge journal: %w", err)
	}
	return result.RowsAffected()
}

// sweepExpired periodically purges expired entries until Close.
func (j *PushJournal) sweepExpired() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-j.closed:
			return
		case <-ticker.C:
			purged, err := j.PurgeExpired()
			if err != nil {
				log.Warn().Err(err).Msg("journal sweep failed")
				continue
			}
			if purged > 0 {
				log.Info().Int64("purged", purged).Msg("journal sweep removed expired pushes")
			}
		}
	}
}

// Close stops the sweeper and closes the database.
func (j *PushJournal) Close() error {
	close(j.closed)
	return j.db.Close()
}
