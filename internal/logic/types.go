// Package logic contains pure business logic for tag presence tracking.
// This package has NO external dependencies (no MQTT, HTTP, OS, or
// time.Sleep). Time is always injectable via time.Time parameters.
package logic

import "time"

// Zone represents the coarse occupancy classification of a tag.
type Zone string

const (
	ZoneUnknown       Zone = "UNKNOWN"
	ZoneOutside       Zone = "OUTSIDE"
	ZoneTransitioning Zone = "TRANSITIONING"
	ZoneInside        Zone = "INSIDE"
)

// EventKind represents a committed presence transition.
type EventKind string

const (
	EventCheckIn  EventKind = "check_in"
	EventCheckOut EventKind = "check_out"
)

// Reading is a single signal-strength observation of a tag by a receiver.
type Reading struct {
	// Strength is in the receiver's native unit (dBm for radio inputs,
	// more negative = weaker).
	Strength int
	Receiver string
	Time     time.Time
}

// Result describes the outcome of feeding one reading to a Machine.
type Result struct {
	StateChanged   bool
	NewState       Zone
	ShouldCheckIn  bool
	ShouldCheckOut bool
}

// HistorySize is the number of recent readings each machine retains.
const HistorySize = 10

// historyRing is a fixed-capacity ring of the most recent readings.
// Not safe for concurrent use — caller must synchronize.
type historyRing struct {
	buf   [HistorySize]Reading
	head  int // next write position
	count int
}

func (r *historyRing) push(rd Reading) {
	r.buf[r.head] = rd
	r.head = (r.head + 1) % HistorySize
	if r.count < HistorySize {
		r.count++
	}
}

// last returns the most recent reading, if any.
func (r *historyRing) last() (Reading, bool) {
	if r.count == 0 {
		return Reading{}, false
	}
	return r.buf[(r.head-1+HistorySize)%HistorySize], true
}

// snapshot returns the retained readings, oldest first.
func (r *historyRing) snapshot() []Reading {
	if r.count == 0 {
		return nil
	}
	out := make([]Reading, r.count)
	start := (r.head - r.count + HistorySize) % HistorySize
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(start+i)%HistorySize]
	}
	return out
}
