package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"satoshi-drop/src/logger"
	"satoshi-drop/src/models"
)

const (
	ModeDeadline = "deadline"
	ModeCascade  = "cascade"

	tickPeriod = time.Second
)

// Sink receives every new countdown value.
type Sink func(models.MCountdownState)

// Options configures an Engine. Zero Clock means the real clock.
type Options struct {
	Mode   string
	Seed   models.MCountdownState
	Target time.Time // deadline mode only; zero means now + Seed
	Clock  clockwork.Clock
	Sink   Sink
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// Engine owns one countdown and drives it once per second until its context
// is cancelled. Nothing is persisted: every Run starts from the seed.
type Engine struct {
	mode   string
	seed   models.MCountdownState
	target time.Time
	clock  clockwork.Clock
	sink   Sink
	logger *logger.Logger

	mu       sync.RWMutex
	state    models.MCountdownState
	deadline time.Time
}

// -----------------------------------------------------------------------------

func NewEngine(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Mode == "" {
		opts.Mode = ModeCascade
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewLogger(nil, "CountdownEngine")
	}

	return &Engine{
		mode:   opts.Mode,
		seed:   opts.Seed,
		target: opts.Target,
		clock:  opts.Clock,
		sink:   opts.Sink,
		logger: opts.Logger,
		state:  opts.Seed,
	}
}

// -----------------------------------------------------------------------------

// State returns the last computed countdown value.
func (e *Engine) State() models.MCountdownState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// -----------------------------------------------------------------------------

// Run publishes the initial value, then one value per tick, until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	ticker := e.clock.NewTicker(tickPeriod)
	defer ticker.Stop()

	e.start()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Countdown stopped at %+v", e.State())
			return
		case <-ticker.Chan():
			e.advance()
		}
	}
}

// -----------------------------------------------------------------------------

func (e *Engine) start() {
	now := e.clock.Now()

	e.mu.Lock()
	if e.mode == ModeDeadline {
		e.deadline = e.target
		if e.deadline.IsZero() {
			e.deadline = now.Add(e.seed.Duration())
		}
		e.state = Remaining(e.deadline, now)
	} else {
		e.state = e.seed
	}
	state := e.state
	deadline := e.deadline
	e.mu.Unlock()

	if e.mode == ModeDeadline {
		e.logger.Info("Countdown started in %s mode, ends at %s", e.mode, deadline.UTC().Format(time.RFC3339))
	} else {
		e.logger.Info("Countdown started in %s mode from %+v", e.mode, state)
	}
	e.publish(state)
}

// -----------------------------------------------------------------------------

func (e *Engine) advance() {
	e.mu.Lock()
	prev := e.state
	if e.mode == ModeDeadline {
		e.state = Remaining(e.deadline, e.clock.Now())
	} else {
		e.state = Tick(e.state)
	}
	next := e.state
	e.mu.Unlock()

	// Terminal state holds silently
	if next == prev {
		return
	}
	if next.IsZero() {
		e.logger.Info("Countdown reached zero")
	}
	e.publish(next)
}

// -----------------------------------------------------------------------------

func (e *Engine) publish(state models.MCountdownState) {
	if e.sink != nil {
		e.sink(state)
	}
}
