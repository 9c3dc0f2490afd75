package logic

import "time"

// Machine tracks one tag's occupancy state across noisy, intermittent
// readings. It commits a transition only after enough consistent
// evidence, which converts reflection and body-shadowing jitter into a
// low false-positive decision without statistical filtering.
//
// Not safe for concurrent use — the registry serializes calls per tag.
type Machine struct {
	profile Profile
	state   Zone // committed state: Unknown, Outside or Inside
	history historyRing

	lastTransitionAt time.Time
	armed            bool // lastTransitionAt gates the debounce interval

	// Entry attempt (Outside -> Inside). Opens on the first non-outside
	// reading, which also counts as the first confirmation.
	entryPending bool
	pendingSince time.Time

	// Exit attempt (Inside -> Outside). The opening outside reading is
	// observation only; confirmations are the consecutive outside
	// readings that follow.
	exitPending bool

	tally int
}

// NewMachine creates a machine in the Unknown state. All tags start
// Unknown after process restart and must re-confirm.
func NewMachine(p Profile) *Machine {
	return &Machine{profile: p, state: ZoneUnknown}
}

// Process feeds one reading to the machine and reports any committed
// transition. History and last-seen always update, even when the
// debounce gate suppresses transition work.
func (m *Machine) Process(rd Reading) Result {
	m.history.push(rd)
	now := rd.Time
	zone := Classify(rd.Strength, m.profile)

	if m.armed && now.Sub(m.lastTransitionAt) < m.profile.DebounceInterval {
		return Result{NewState: m.State()}
	}

	switch m.state {
	case ZoneUnknown:
		return m.processUnknown(zone)
	case ZoneOutside:
		return m.processOutside(zone, now)
	case ZoneInside:
		return m.processInside(zone, now)
	}
	return Result{NewState: m.State()}
}

// processUnknown commits the first decisive reading as a baseline.
// The baseline does not arm the debounce timer: a tag first seen at the
// doorway should not have to wait out the interval before checking in.
func (m *Machine) processUnknown(zone Zone) Result {
	if zone == ZoneTransitioning {
		return Result{NewState: ZoneUnknown}
	}
	m.state = zone
	return Result{
		StateChanged:  true,
		NewState:      zone,
		ShouldCheckIn: zone == ZoneInside,
	}
}

func (m *Machine) processOutside(zone Zone, now time.Time) Result {
	// An attempt that outlived its window models a door that opened but
	// nobody entered.
	if m.entryPending && now.Sub(m.pendingSince) > m.profile.TransitionWindow {
		m.entryPending = false
		m.tally = 0
	}

	if zone == ZoneOutside {
		m.entryPending = false
		m.tally = 0
		return Result{NewState: m.State()}
	}

	if !m.entryPending {
		m.entryPending = true
		m.pendingSince = now
		m.tally = 1
	} else if zone == ZoneInside {
		// Only inside-classified readings confirm an open attempt; a
		// transitioning reading keeps it pending without adding
		// evidence. Lingering at the doorway never checks anyone in.
		m.tally++
	}

	if m.tally >= m.profile.ConfirmationCount {
		m.commit(ZoneInside, now)
		return Result{StateChanged: true, NewState: ZoneInside, ShouldCheckIn: true}
	}
	return Result{NewState: m.State()}
}

func (m *Machine) processInside(zone Zone, now time.Time) Result {
	if zone != ZoneOutside {
		// No partial credit: any non-outside reading resets the attempt.
		m.exitPending = false
		m.tally = 0
		return Result{NewState: ZoneInside}
	}

	if !m.exitPending {
		m.exitPending = true
		m.tally = 0
		return Result{NewState: ZoneInside}
	}

	m.tally++
	if m.tally >= m.profile.ConfirmationCount {
		m.commit(ZoneOutside, now)
		return Result{StateChanged: true, NewState: ZoneOutside, ShouldCheckOut: true}
	}
	return Result{NewState: ZoneInside}
}

func (m *Machine) commit(z Zone, now time.Time) {
	m.state = z
	m.lastTransitionAt = now
	m.armed = true
	m.entryPending = false
	m.exitPending = false
	m.tally = 0
}

// Absent applies the absence policy at the given time. A tag inside
// whose silence has reached the profile's absence timeout is forced out
// through the normal commit path. A stale entry attempt is abandoned so
// the tag does not report Transitioning forever.
func (m *Machine) Absent(now time.Time) Result {
	if m.entryPending && now.Sub(m.pendingSince) > m.profile.TransitionWindow {
		m.entryPending = false
		m.tally = 0
	}

	last, ok := m.history.last()
	if !ok || m.state != ZoneInside {
		return Result{NewState: m.State()}
	}
	if now.Sub(last.Time) < m.profile.AbsenceTimeout {
		return Result{NewState: m.State()}
	}
	if m.armed && now.Sub(m.lastTransitionAt) < m.profile.DebounceInterval {
		return Result{NewState: m.State()}
	}

	m.commit(ZoneOutside, now)
	return Result{StateChanged: true, NewState: ZoneOutside, ShouldCheckOut: true}
}

// State returns the externally observable zone. Transitioning is
// visible only while an entry attempt is in progress.
func (m *Machine) State() Zone {
	if m.state == ZoneOutside && m.entryPending {
		return ZoneTransitioning
	}
	return m.state
}

// Profile returns the profile the machine was built with.
func (m *Machine) Profile() Profile {
	return m.profile
}

// LastReading returns the most recent reading, if any have been seen.
func (m *Machine) LastReading() (Reading, bool) {
	return m.history.last()
}

// History returns a copy of the retained readings, oldest first.
func (m *Machine) History() []Reading {
	return m.history.snapshot()
}

// Stale reports whether the tag has been silent past the profile's
// absence warning. Used by status consumers, never by transitions.
func (m *Machine) Stale(now time.Time) bool {
	last, ok := m.history.last()
	if !ok {
		return true
	}
	return now.Sub(last.Time) >= m.profile.AbsenceWarning
}
