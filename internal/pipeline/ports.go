// Package pipeline drives sightings through the presence engine: it
// resolves tags against the durable store, feeds per-tag state
// machines, and fans committed transitions out to the identity service
// and the event delivery subsystem.
package pipeline

import (
	"time"

	"github.com/sweeney/presence-engine/internal/delivery"
)

// ReasonUnknownTag is returned for sightings of unregistered tags.
const ReasonUnknownTag = "unknown_tag"

// Tag is the durable record for a proximity tag, owned by the store.
type Tag struct {
	ID       string
	Identity string // empty = unclaimed
	Profile  string // entrance profile name, empty = default
	LastZone string
	LastSeen time.Time
}

// TagStore resolves and persists durable tag records.
type TagStore interface {
	// Tag returns the record for the given id, or nil when unknown.
	Tag(id string) (*Tag, error)

	// RecordSighting appends a raw sighting to the audit log and
	// updates the tag's last-seen fields.
	RecordSighting(tagID, receiverID string, strength int, at time.Time) error

	// UpdateTagZone records a tag's committed zone.
	UpdateTagZone(tagID, zone string) error
}

// ReceiverDirectory maps receiver identifiers to zones. Best-effort: a
// receiver with no zone association returns "".
type ReceiverDirectory interface {
	Zone(receiverID string) (string, error)
}

// IdentityService performs check-in and check-out for claimed
// identities. Owned by the external identity subsystem.
type IdentityService interface {
	CheckIn(identity, zone string, at time.Time) error
	CheckOut(identity, zone string, at time.Time) error
}

// EventSink accepts confirmed events for delivery. Never blocks beyond
// the deliverer's inline budget.
type EventSink interface {
	Deliver(event delivery.Event)
}
