package state

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"satoshi-drop/src/models"
)

var t0 = time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)

func snap(seq uint64, amount string) models.MPriceSnapshot {
	return models.MPriceSnapshot{
		BtcPriceUsd: decimal.RequireFromString(amount),
		FetchedAt:   t0.Add(time.Duration(seq) * 10 * time.Second),
		Sequence:    seq,
	}
}

func TestDeriveSatPrice(t *testing.T) {
	got := DeriveSatPrice(decimal.RequireFromString("65000"))
	if !got.Equal(decimal.RequireFromString("0.00065")) {
		t.Fatalf("expected 0.00065, got %s", got)
	}

	ps := NewPriceState(snap(1, "65000.0"))
	if ps.SatUnitPriceUsd != 0.00065 {
		t.Fatalf("expected float 0.00065, got %v", ps.SatUnitPriceUsd)
	}
	if ps.BtcPriceUsd != 65000 || !ps.Loaded || ps.Sequence != 1 {
		t.Fatalf("unexpected state %+v", ps)
	}
}

func TestPriceStatePairIsExact(t *testing.T) {
	for _, amount := range []string{"60000.03", "67123.45", "64999.99", "0.01", "123456.78", "65000"} {
		p := NewPriceState(snap(1, amount))
		if p.SatUnitPriceUsd != p.BtcPriceUsd/models.SatsPerBitcoin {
			t.Fatalf("%s: sat %v != btc/1e8 %v", amount, p.SatUnitPriceUsd, p.BtcPriceUsd/models.SatsPerBitcoin)
		}
	}

	// Every cent of a busy price band
	for cents := int64(6000000); cents < 6010000; cents++ {
		p := NewPriceState(models.MPriceSnapshot{BtcPriceUsd: decimal.New(cents, -2), Sequence: 1})
		if p.SatUnitPriceUsd != p.BtcPriceUsd/models.SatsPerBitcoin {
			t.Fatalf("%d cents: sat %v != btc/1e8 %v", cents, p.SatUnitPriceUsd, p.BtcPriceUsd/models.SatsPerBitcoin)
		}
	}
}

func TestFormatSatPrice(t *testing.T) {
	if got := FormatSatPrice(models.MPriceState{}); got != LoadingText {
		t.Fatalf("unset price must render loading, got %q", got)
	}
	if got := FormatSatPrice(models.MPriceState{Loaded: true, SatUnitPriceUsd: math.NaN()}); got != LoadingText {
		t.Fatalf("NaN must render loading, got %q", got)
	}
	if got := FormatSatPrice(NewPriceState(snap(1, "65000"))); got != "0.00065000" {
		t.Fatalf("expected 0.00065000, got %q", got)
	}
	if got := FormatSatPrice(NewPriceState(snap(1, "67123.45"))); got != "0.00067123" {
		t.Fatalf("expected 8 decimal rounding, got %q", got)
	}
}

func TestUsdForSats(t *testing.T) {
	if _, ok := UsdForSats(models.MPriceState{}, 1); ok {
		t.Fatalf("no value before load")
	}
	usd, ok := UsdForSats(NewPriceState(snap(1, "65000")), 1000)
	if !ok || !usd.Equal(decimal.RequireFromString("0.65")) {
		t.Fatalf("expected 0.65, got %s", usd)
	}
}

func TestStoreStartsUnloaded(t *testing.T) {
	s := NewStore(models.MCountdownState{Days: 14, Hours: 23, Minutes: 59, Seconds: 59}, 10, clockwork.NewFakeClockAt(t0))

	view := s.Snapshot()
	if view.Type != models.DisplayInitial {
		t.Fatalf("expected INITIAL, got %s", view.Type)
	}
	if view.Price.Loaded || view.SatPriceDisplay != LoadingText {
		t.Fatalf("expected loading view, got %+v", view)
	}
	if view.Countdown.Days != 14 || view.Timestamp != t0.Unix() {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestStoreApplyPriceNotifiesAndRecords(t *testing.T) {
	s := NewStore(models.MCountdownState{}, 10, clockwork.NewFakeClockAt(t0))

	var got []models.MDisplayData
	s.Subscribe(func(d models.MDisplayData) { got = append(got, d) })

	if !s.ApplyPrice(snap(1, "65000")) {
		t.Fatalf("first price must be accepted")
	}
	if len(got) != 1 || got[0].Type != models.DisplayPrice || got[0].SatPriceDisplay != "0.00065000" {
		t.Fatalf("unexpected notifications %+v", got)
	}

	hist := s.History(0)
	if len(hist) != 1 || hist[0].BtcPriceUsd != 65000 || hist[0].Timestamp != t0.Add(10*time.Second).Unix() {
		t.Fatalf("unexpected history %+v", hist)
	}
}

func TestStoreDiscardsOlderSequence(t *testing.T) {
	s := NewStore(models.MCountdownState{}, 10, clockwork.NewFakeClockAt(t0))

	notified := 0
	s.Subscribe(func(models.MDisplayData) { notified++ })

	s.ApplyPrice(snap(2, "70000"))
	before := s.Price()

	if s.ApplyPrice(snap(1, "60000")) {
		t.Fatalf("older response must be discarded")
	}
	if s.ApplyPrice(snap(2, "61000")) {
		t.Fatalf("duplicate sequence must be discarded")
	}
	if s.Price() != before {
		t.Fatalf("price mutated by stale response: %+v", s.Price())
	}
	if notified != 1 || len(s.History(0)) != 1 {
		t.Fatalf("stale responses must not notify or record, got %d/%d", notified, len(s.History(0)))
	}

	if !s.ApplyPrice(snap(3, "71000")) {
		t.Fatalf("newer response must be accepted")
	}
	if s.Price().BtcPriceUsd != 71000 {
		t.Fatalf("unexpected price %+v", s.Price())
	}
}

func TestStoreSetCountdown(t *testing.T) {
	s := NewStore(models.MCountdownState{Seconds: 5}, 10, clockwork.NewFakeClockAt(t0))

	var last models.MDisplayData
	s.Subscribe(func(d models.MDisplayData) { last = d })

	s.SetCountdown(models.MCountdownState{Seconds: 4})
	if last.Type != models.DisplayCountdown || last.Countdown.Seconds != 4 {
		t.Fatalf("unexpected notification %+v", last)
	}
	if s.Countdown().Seconds != 4 {
		t.Fatalf("countdown not stored")
	}
	if last.SatPriceDisplay != LoadingText {
		t.Fatalf("countdown updates still carry the price view, got %q", last.SatPriceDisplay)
	}
}
