package state

import (
	"sync"

	"github.com/jonboulle/clockwork"

	"satoshi-drop/src/models"
	"satoshi-drop/src/utils"
)

// Listener is notified after every mutation of the Store.
// It must not call Store mutators.
type Listener func(models.MDisplayData)

// -----------------------------------------------------------------------------
// Store is the display state cell shared by the countdown engine, the price
// poller and the readers (HTTP, websocket, publishers). One instance is
// created per process and passed explicitly; there is no package state.
// -----------------------------------------------------------------------------

type Store struct {
	clock clockwork.Clock

	mu        sync.RWMutex
	countdown models.MCountdownState
	price     models.MPriceState
	history   *utils.RingBuffer

	// notifyMu keeps listener calls in mutation order
	notifyMu  sync.Mutex
	listeners []Listener
}

// -----------------------------------------------------------------------------

func NewStore(initial models.MCountdownState, historySize int, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		clock:     clock,
		countdown: initial,
		history:   utils.NewRingBuffer(historySize),
	}
}

// -----------------------------------------------------------------------------

// Subscribe registers l for all future updates.
func (s *Store) Subscribe(l Listener) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.listeners = append(s.listeners, l)
}

// -----------------------------------------------------------------------------

// SetCountdown publishes a new countdown value.
func (s *Store) SetCountdown(c models.MCountdownState) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.countdown = c
	update := s.displayLocked(models.DisplayCountdown)
	s.mu.Unlock()

	s.notifyLocked(update)
}

// -----------------------------------------------------------------------------

// ApplyPrice publishes a fetch result unless a newer one was already applied.
// It reports whether the snapshot was accepted.
func (s *Store) ApplyPrice(snap models.MPriceSnapshot) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.price.Loaded && snap.Sequence <= s.price.Sequence {
		s.mu.Unlock()
		return false
	}
	s.price = NewPriceState(snap)
	s.history.Append(models.MPricePoint{
		Timestamp:       s.price.UpdatedAt,
		BtcPriceUsd:     s.price.BtcPriceUsd,
		SatUnitPriceUsd: s.price.SatUnitPriceUsd,
	})
	update := s.displayLocked(models.DisplayPrice)
	s.mu.Unlock()

	s.notifyLocked(update)
	return true
}

// -----------------------------------------------------------------------------

// Snapshot returns the full current view.
func (s *Store) Snapshot() models.MDisplayData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.displayLocked(models.DisplayInitial)
}

// -----------------------------------------------------------------------------

func (s *Store) Countdown() models.MCountdownState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countdown
}

// -----------------------------------------------------------------------------

func (s *Store) Price() models.MPriceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.price
}

// -----------------------------------------------------------------------------

// History returns up to n of the latest price points, oldest first.
// n <= 0 returns the whole window.
func (s *Store) History(n int) []models.MPricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 {
		return s.history.GetAll()
	}
	return s.history.GetLatest(n)
}

// -----------------------------------------------------------------------------

func (s *Store) displayLocked(kind string) models.MDisplayData {
	return models.MDisplayData{
		Type:            kind,
		Countdown:       s.countdown,
		Price:           s.price,
		SatPriceDisplay: FormatSatPrice(s.price),
		Timestamp:       s.clock.Now().Unix(),
	}
}

// -----------------------------------------------------------------------------

func (s *Store) notifyLocked(update models.MDisplayData) {
	for _, l := range s.listeners {
		l(update)
	}
}
