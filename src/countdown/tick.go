package countdown

import (
	"time"

	"satoshi-drop/src/models"
)

// -----------------------------------------------------------------------------

// Tick advances the countdown by one second using a borrow cascade. The
// all-zero state is terminal and returned unchanged.
//
// The cascade only borrows from the next larger unit, so a seed whose
// sub-day fields are not 23:59:59 is not a calendar-accurate duration once
// it rolls over. Deadline mode in Engine avoids that.
func Tick(s models.MCountdownState) models.MCountdownState {
	switch {
	case s.Seconds > 0:
		s.Seconds--
	case s.Minutes > 0:
		s.Minutes--
		s.Seconds = 59
	case s.Hours > 0:
		s.Hours--
		s.Minutes, s.Seconds = 59, 59
	case s.Days > 0:
		s.Days--
		s.Hours, s.Minutes, s.Seconds = 23, 59, 59
	}
	return s
}

// -----------------------------------------------------------------------------

// FromDuration breaks d down into days/hours/minutes/seconds, truncating
// sub-second remainders. Negative durations clamp to zero.
func FromDuration(d time.Duration) models.MCountdownState {
	if d <= 0 {
		return models.MCountdownState{}
	}

	total := int64(d / time.Second)
	return models.MCountdownState{
		Days:    int(total / 86400),
		Hours:   int(total % 86400 / 3600),
		Minutes: int(total % 3600 / 60),
		Seconds: int(total % 60),
	}
}

// -----------------------------------------------------------------------------

// Remaining derives the countdown shown at now for a fixed deadline.
// Partial seconds round up so the display reaches zero exactly at deadline.
func Remaining(deadline, now time.Time) models.MCountdownState {
	left := deadline.Sub(now)
	if left <= 0 {
		return models.MCountdownState{}
	}
	if rem := left % time.Second; rem != 0 {
		left += time.Second - rem
	}
	return FromDuration(left)
}
