// Package store persists durable tag, receiver, sighting and event
// records in sqlite. The presence engine only sees it through the
// pipeline interfaces; runtime machine state is never stored here.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sweeney/presence-engine/internal/pipeline"
)

//go:embed schema.sql
var schema string

// Store handles database operations.
type Store struct {
	db *sql.DB
}

// New creates a Store with the given database path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RegisterTag creates a tag record if one does not exist and returns
// the current record either way.
func (s *Store) RegisterTag(id string) (*pipeline.Tag, error) {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO tags (id, created_at) VALUES (?, ?)",
		id, time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	return s.Tag(id)
}

// ClaimTag assigns the tag to an identity. Claiming changes ownership
// but never deletes sighting history.
func (s *Store) ClaimTag(id, identity string) error {
	res, err := s.db.Exec("UPDATE tags SET identity_ref = ? WHERE id = ?", identity, id)
	if err != nil {
		return fmt.Errorf("claim tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim tag: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("claim tag: %s not registered", id)
	}
	return nil
}

// SetTagProfile assigns a named entrance profile to the tag.
func (s *Store) SetTagProfile(id, profile string) error {
	if _, err := s.db.Exec("UPDATE tags SET profile = ? WHERE id = ?", profile, id); err != nil {
		return fmt.Errorf("set tag profile: %w", err)
	}
	return nil
}

// DeleteTag removes a tag record. Explicit administrative action only.
func (s *Store) DeleteTag(id string) error {
	if _, err := s.db.Exec("DELETE FROM tags WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// Tag returns the record for the given id, or nil when unknown.
func (s *Store) Tag(id string) (*pipeline.Tag, error) {
	row := s.db.QueryRow(
		"SELECT id, identity_ref, profile, last_zone, last_seen FROM tags WHERE id = ?", id)

	var t pipeline.Tag
	var lastSeen sql.NullTime
	err := row.Scan(&t.ID, &t.Identity, &t.Profile, &t.LastZone, &lastSeen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select tag: %w", err)
	}
	if lastSeen.Valid {
		t.LastSeen = lastSeen.Time
	}
	return &t, nil
}

// ListTags returns all tag records ordered by id.
func (s *Store) ListTags() ([]pipeline.Tag, error) {
	rows, err := s.db.Query(
		"SELECT id, identity_ref, profile, last_zone, last_seen FROM tags ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []pipeline.Tag
	for rows.Next() {
		var t pipeline.Tag
		var lastSeen sql.NullTime
		if err := rows.Scan(&t.ID, &t.Identity, &t.Profile, &t.LastZone, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		if lastSeen.Valid {
			t.LastSeen = lastSeen.Time
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// RecordSighting appends an audit row and updates the tag's last-seen
// fields.
func (s *Store) RecordSighting(tagID, receiverID string, strength int, at time.Time) error {
	_, err := s.db.Exec(
		"INSERT INTO sightings (id, tag_id, receiver_id, strength, seen_at) VALUES (?, ?, ?, ?, ?)",
		uuid.New().String(), tagID, receiverID, strength, at,
	)
	if err != nil {
		return fmt.Errorf("insert sighting: %w", err)
	}

	_, err = s.db.Exec(
		"UPDATE tags SET last_strength = ?, last_seen = ? WHERE id = ?",
		strength, at, tagID,
	)
	if err != nil {
		return fmt.Errorf("update tag last seen: %w", err)
	}
	return nil
}

// SightingCount returns the number of audited sightings for a tag.
func (s *Store) SightingCount(tagID string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sightings WHERE tag_id = ?", tagID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sightings: %w", err)
	}
	return n, nil
}

// UpdateTagZone records a tag's committed zone.
func (s *Store) UpdateTagZone(tagID, zone string) error {
	if _, err := s.db.Exec("UPDATE tags SET last_zone = ? WHERE id = ?", zone, tagID); err != nil {
		return fmt.Errorf("update tag zone: %w", err)
	}
	return nil
}

// RegisterReceiver creates or updates a receiver's zone association.
func (s *Store) RegisterReceiver(id, zone string) error {
	_, err := s.db.Exec(
		"INSERT INTO receivers (id, zone) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET zone = excluded.zone",
		id, zone,
	)
	if err != nil {
		return fmt.Errorf("register receiver: %w", err)
	}
	return nil
}

// Zone returns the receiver's zone, or "" for unknown receivers.
func (s *Store) Zone(receiverID string) (string, error) {
	var zone string
	err := s.db.QueryRow("SELECT zone FROM receivers WHERE id = ?", receiverID).Scan(&zone)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select receiver zone: %w", err)
	}
	return zone, nil
}

// RecordEvent appends a committed presence event to the durable log.
func (s *Store) RecordEvent(id, kind, identity, zone string, at time.Time) error {
	_, err := s.db.Exec(
		"INSERT INTO events (id, kind, identity_ref, zone, occurred_at) VALUES (?, ?, ?, ?, ?)",
		id, kind, identity, zone, at,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// EventCount returns the number of recorded events.
func (s *Store) EventCount() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
