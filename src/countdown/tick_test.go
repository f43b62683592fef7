package countdown

import (
	"testing"
	"time"

	"satoshi-drop/src/models"
)

func cd(d, h, m, s int) models.MCountdownState {
	return models.MCountdownState{Days: d, Hours: h, Minutes: m, Seconds: s}
}

func TestTickDecrementsSecondsOnly(t *testing.T) {
	for _, in := range []models.MCountdownState{cd(3, 4, 5, 6), cd(0, 0, 0, 1), cd(0, 23, 0, 59)} {
		got := Tick(in)
		want := in
		want.Seconds--
		if got != want {
			t.Fatalf("Tick(%+v) = %+v, want %+v", in, got, want)
		}
	}
}

func TestTickBorrowsFromMinutes(t *testing.T) {
	if got := Tick(cd(2, 7, 10, 0)); got != cd(2, 7, 9, 59) {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestTickBorrowsFromHours(t *testing.T) {
	if got := Tick(cd(2, 7, 0, 0)); got != cd(2, 6, 59, 59) {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestTickBorrowsFromDays(t *testing.T) {
	if got := Tick(cd(2, 0, 0, 0)); got != cd(1, 23, 59, 59) {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestTickTerminalIsIdempotent(t *testing.T) {
	zero := models.MCountdownState{}
	got := Tick(zero)
	if got != zero {
		t.Fatalf("expected zero, got %+v", got)
	}
	if Tick(Tick(got)) != zero {
		t.Fatalf("terminal state must stay terminal")
	}
}

func TestTickFromLaunchSeed(t *testing.T) {
	seed := cd(14, 23, 59, 59)

	apply := func(n int) models.MCountdownState {
		s := seed
		for i := 0; i < n; i++ {
			s = Tick(s)
		}
		return s
	}

	if got := apply(1); got != cd(14, 23, 59, 58) {
		t.Fatalf("1 tick: %+v", got)
	}
	if got := apply(60); got != cd(14, 23, 58, 59) {
		t.Fatalf("60 ticks: %+v", got)
	}
	if got := apply(86400); got != cd(13, 23, 59, 59) {
		t.Fatalf("86400 ticks: %+v", got)
	}
}

func TestTickReachesZeroAfterFullDuration(t *testing.T) {
	s := cd(0, 1, 0, 0)
	for i := 0; i < 3600; i++ {
		s = Tick(s)
	}
	if !s.IsZero() {
		t.Fatalf("expected zero after one hour of ticks, got %+v", s)
	}
}

func TestTickPreservesValidity(t *testing.T) {
	s := cd(1, 2, 3, 4)
	for i := 0; i < 100000 && !s.IsZero(); i++ {
		s = Tick(s)
		if !s.IsValid() {
			t.Fatalf("invalid state after %d ticks: %+v", i+1, s)
		}
	}
}

func TestFromDuration(t *testing.T) {
	d := 14*24*time.Hour + 23*time.Hour + 59*time.Minute + 59*time.Second + 400*time.Millisecond
	if got := FromDuration(d); got != cd(14, 23, 59, 59) {
		t.Fatalf("unexpected breakdown %+v", got)
	}
	if got := FromDuration(-time.Hour); !got.IsZero() {
		t.Fatalf("negative duration must clamp, got %+v", got)
	}
	if got := cd(2, 5, 0, 0); FromDuration(got.Duration()) != got {
		t.Fatalf("round trip failed for %+v", got)
	}
}

func TestRemainingRoundsUpPartialSeconds(t *testing.T) {
	now := time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)

	if got := Remaining(now.Add(1500*time.Millisecond), now); got != cd(0, 0, 0, 2) {
		t.Fatalf("expected 2s, got %+v", got)
	}
	if got := Remaining(now.Add(-time.Second), now); !got.IsZero() {
		t.Fatalf("past deadline must be zero, got %+v", got)
	}
	if got := Remaining(now, now); !got.IsZero() {
		t.Fatalf("deadline now must be zero, got %+v", got)
	}
}
