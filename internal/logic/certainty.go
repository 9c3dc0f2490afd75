package logic

import "time"

// CertaintyConstants are the expected signal bounds and the absence
// window used to derive a display confidence from a tag's last reading.
type CertaintyConstants struct {
	// BestExpected and WorstExpected bracket the plausible strength
	// range; BestExpected must be greater than WorstExpected.
	BestExpected  int
	WorstExpected int

	// MaxAbsenceWindow is the silence duration at which confidence
	// reaches zero.
	MaxAbsenceWindow time.Duration
}

// Certainty derives a confidence value in [0,1] from reading age and
// strength: the product of a linear age decay and a normalized strength
// factor. Purely derived and read-only; the state machine never uses
// it. Monotonically non-increasing in elapsed time, exactly zero once
// the absence window has fully elapsed.
func Certainty(lastStrength int, lastSeen, now time.Time, c CertaintyConstants) float64 {
	if c.MaxAbsenceWindow <= 0 || c.BestExpected <= c.WorstExpected {
		return 0
	}

	age := now.Sub(lastSeen)
	if age >= c.MaxAbsenceWindow {
		return 0
	}
	ageFactor := 1 - float64(age)/float64(c.MaxAbsenceWindow)
	if ageFactor < 0 {
		ageFactor = 0
	}

	strengthFactor := float64(lastStrength-c.WorstExpected) / float64(c.BestExpected-c.WorstExpected)
	if strengthFactor < 0 {
		strengthFactor = 0
	}
	if strengthFactor > 1 {
		strengthFactor = 1
	}

	return ageFactor * strengthFactor
}
