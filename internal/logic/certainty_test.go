package logic

import (
	"testing"
	"time"
)

func testConstants() CertaintyConstants {
	return CertaintyConstants{
		BestExpected:     -40,
		WorstExpected:    -90,
		MaxAbsenceWindow: 2 * time.Minute,
	}
}

func TestCertaintyFreshStrongReading(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	got := Certainty(-40, now, now, testConstants())
	if got != 1.0 {
		t.Errorf("expected 1.0, got %f", got)
	}
}

func TestCertaintyMonotonicInAge(t *testing.T) {
	seen := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := testConstants()

	prev := 2.0
	for age := time.Duration(0); age <= 3*time.Minute; age += 10 * time.Second {
		got := Certainty(-60, seen, seen.Add(age), c)
		if got > prev {
			t.Errorf("age %v: certainty increased from %f to %f", age, prev, got)
		}
		prev = got
	}
}

func TestCertaintyZeroAtAbsenceWindow(t *testing.T) {
	seen := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := testConstants()

	if got := Certainty(-40, seen, seen.Add(c.MaxAbsenceWindow), c); got != 0 {
		t.Errorf("at window: expected 0, got %f", got)
	}
	if got := Certainty(-40, seen, seen.Add(c.MaxAbsenceWindow+time.Hour), c); got != 0 {
		t.Errorf("past window: expected 0, got %f", got)
	}
}

func TestCertaintyStrengthClamped(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := testConstants()

	if got := Certainty(-20, now, now, c); got != 1.0 {
		t.Errorf("above best expected: got %f, want 1.0", got)
	}
	if got := Certainty(-110, now, now, c); got != 0 {
		t.Errorf("below worst expected: got %f, want 0", got)
	}
}

func TestCertaintyProduct(t *testing.T) {
	seen := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := testConstants()

	// Half the window elapsed, midpoint strength: 0.5 * 0.5.
	got := Certainty(-65, seen, seen.Add(time.Minute), c)
	if got != 0.25 {
		t.Errorf("expected 0.25, got %f", got)
	}
}

func TestCertaintyDegenerateConstants(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if got := Certainty(-50, now, now, CertaintyConstants{BestExpected: -60, WorstExpected: -60, MaxAbsenceWindow: time.Minute}); got != 0 {
		t.Errorf("collapsed strength range: got %f, want 0", got)
	}
	if got := Certainty(-50, now, now, CertaintyConstants{BestExpected: -40, WorstExpected: -90}); got != 0 {
		t.Errorf("zero window: got %f, want 0", got)
	}
}
