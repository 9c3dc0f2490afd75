package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/sweeney/presence-engine/internal/logic"
)

// Registry owns the runtime state machine for every actively-seen
// claimed tag. Machines are created lazily on first sighting, live for
// the process lifetime, and are never persisted; after restart every
// tag starts Unknown and must re-confirm.
//
// The backing map is never exposed. Each entry carries its own lock so
// sightings for different tags proceed concurrently while two for the
// same tag cannot race on the machine's confirmation state.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*tagEntry
}

type tagEntry struct {
	mu       sync.Mutex
	machine  *logic.Machine
	identity string
}

// TagSnapshot is a point-in-time view of one tracked tag for status
// consumers.
type TagSnapshot struct {
	ID           string
	Identity     string
	State        logic.Zone
	LastStrength int
	LastReceiver string
	LastSeen     time.Time
	Stale        bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*tagEntry)}
}

// getOrCreate returns the entry for the tag, creating its machine on
// first sighting. The identity is refreshed so a re-claimed tag
// attributes future events to its new owner.
func (r *Registry) getOrCreate(id string, profile logic.Profile, identity string) *tagEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		e = &tagEntry{machine: logic.NewMachine(profile)}
		r.entries[id] = e
	}
	e.identity = identity
	return e
}

func (r *Registry) get(id string) (*tagEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	return e, ok
}

// Remove discards a tag's runtime state. Administrative use only.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// Len returns the number of tracked tags.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) ids() []string {
	r.mu.Lock()
	out := make([]string, 0, len(r.entries))
	for id := range r.entries {
		out = append(out, id)
	}
	r.mu.Unlock()
	sort.Strings(out)
	return out
}

func (r *Registry) snapshotEntry(id string, e *tagEntry, now time.Time) TagSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := TagSnapshot{
		ID:       id,
		Identity: e.identity,
		State:    e.machine.State(),
		Stale:    e.machine.Stale(now),
	}
	if last, ok := e.machine.LastReading(); ok {
		snap.LastStrength = last.Strength
		snap.LastReceiver = last.Receiver
		snap.LastSeen = last.Time
	}
	return snap
}

// Snapshot returns a view of every tracked tag, ordered by id.
func (r *Registry) Snapshot(now time.Time) []TagSnapshot {
	ids := r.ids()
	out := make([]TagSnapshot, 0, len(ids))
	for _, id := range ids {
		if e, ok := r.get(id); ok {
			out = append(out, r.snapshotEntry(id, e, now))
		}
	}
	return out
}

// Get returns the snapshot for one tag, if tracked.
func (r *Registry) Get(id string, now time.Time) (TagSnapshot, bool) {
	e, ok := r.get(id)
	if !ok {
		return TagSnapshot{}, false
	}
	return r.snapshotEntry(id, e, now), true
}
