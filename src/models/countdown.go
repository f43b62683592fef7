package models

import "time"

// MCountdownState is the displayed time left before the draw.
type MCountdownState struct {
	Days    int `json:"days" yaml:"days"`
	Hours   int `json:"hours" yaml:"hours"`
	Minutes int `json:"minutes" yaml:"minutes"`
	Seconds int `json:"seconds" yaml:"seconds"`
}

// -----------------------------------------------------------------------------

// IsZero reports whether the countdown reached its terminal state.
func (c MCountdownState) IsZero() bool {
	return c.Days == 0 && c.Hours == 0 && c.Minutes == 0 && c.Seconds == 0
}

// -----------------------------------------------------------------------------

// IsValid checks the field ranges of a countdown value.
func (c MCountdownState) IsValid() bool {
	return c.Days >= 0 &&
		c.Hours >= 0 && c.Hours <= 23 &&
		c.Minutes >= 0 && c.Minutes <= 59 &&
		c.Seconds >= 0 && c.Seconds <= 59
}

// -----------------------------------------------------------------------------

// Duration converts the breakdown back to a time.Duration.
func (c MCountdownState) Duration() time.Duration {
	return time.Duration(c.Days)*24*time.Hour +
		time.Duration(c.Hours)*time.Hour +
		time.Duration(c.Minutes)*time.Minute +
		time.Duration(c.Seconds)*time.Second
}

// -----------------------------------------------------------------------------

// TotalSeconds returns the remaining time in whole seconds.
func (c MCountdownState) TotalSeconds() int64 {
	return int64(c.Duration() / time.Second)
}
