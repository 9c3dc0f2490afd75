package logic

import "time"

// Profile is a named set of entrance tuning constants. Profiles are
// immutable; a tag is assigned one by name and keeps it for the life of
// its machine.
type Profile struct {
	Name string

	// Signal-strength cutoffs in the receiver's native unit.
	// InsideThreshold must be greater than OutsideThreshold.
	OutsideThreshold int
	InsideThreshold  int

	// TransitionWindow bounds how long an entry attempt may take between
	// leaving the outside classification and confirming inside.
	TransitionWindow time.Duration

	// ConfirmationCount is the number of consistent readings required
	// before a transition commits.
	ConfirmationCount int

	// DebounceInterval is the minimum time between two committed
	// transitions for the same tag.
	DebounceInterval time.Duration

	// AbsenceWarning and AbsenceTimeout are the silence durations after
	// which a tag is considered possibly gone and gone, respectively.
	AbsenceWarning time.Duration
	AbsenceTimeout time.Duration
}

// DefaultProfileName identifies the built-in fallback profile.
const DefaultProfileName = "default"

// DefaultProfile returns the built-in profile used when no named profile
// matches. Tuned for a doorway receiver a few meters from the tag.
func DefaultProfile() Profile {
	return Profile{
		Name:              DefaultProfileName,
		OutsideThreshold:  -75,
		InsideThreshold:   -55,
		TransitionWindow:  5 * time.Second,
		ConfirmationCount: 3,
		DebounceInterval:  time.Second,
		AbsenceWarning:    30 * time.Second,
		AbsenceTimeout:    2 * time.Minute,
	}
}
