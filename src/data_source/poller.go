package datasource

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"satoshi-drop/src/helpers"
	"satoshi-drop/src/interfaces"
	"satoshi-drop/src/logger"
	"satoshi-drop/src/metrics"
	"satoshi-drop/src/models"
	"satoshi-drop/src/state"
)

// DefaultInterval is the spacing between two spot price requests.
const DefaultInterval = 10 * time.Second

// alertAfter is the number of consecutive failures logged as errors.
const alertAfter = 6

// PriceApplier accepts fetch results. It returns false for results older than
// one already applied.
type PriceApplier interface {
	ApplyPrice(snap models.MPriceSnapshot) bool
}

// -----------------------------------------------------------------------------
// Poller fetches the spot price right away and then on every interval. Each
// fetch runs in its own goroutine so a slow request never delays the next
// one; results carry a sequence number and stale ones are dropped by the
// applier.
// -----------------------------------------------------------------------------

type Poller struct {
	source   interfaces.IPriceSource
	applier  PriceApplier
	interval time.Duration
	clock    clockwork.Clock
	metrics  *metrics.Metrics
	logger   *logger.Logger
	errors   *helpers.ErrorHandler

	seq         atomic.Uint64
	lastSuccess atomic.Int64
	wg          sync.WaitGroup
}

// PollerOptions configures a Poller. Zero values pick the defaults.
type PollerOptions struct {
	Interval time.Duration
	Clock    clockwork.Clock
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPoller(source interfaces.IPriceSource, applier PriceApplier, opts PollerOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewLogger(nil, "PricePoller")
	}

	return &Poller{
		source:   source,
		applier:  applier,
		interval: opts.Interval,
		clock:    opts.Clock,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		errors:   helpers.NewErrorHandler(opts.Logger, alertAfter),
	}
}

// -----------------------------------------------------------------------------

// Run polls until ctx is cancelled, then waits for in-flight fetches.
func (p *Poller) Run(ctx context.Context) {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("Polling %s every %s", p.source.Name(), p.interval)
	p.launch(ctx)

	for {
		select {
		case <-ctx.Done():
			p.wg.Wait()
			p.logger.Info("Price poller stopped")
			return
		case <-ticker.Chan():
			p.launch(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

func (p *Poller) launch(ctx context.Context) {
	seq := p.seq.Add(1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.fetch(ctx, seq)
	}()
}

// -----------------------------------------------------------------------------

func (p *Poller) fetch(ctx context.Context, seq uint64) {
	start := p.clock.Now()
	snap, err := p.source.FetchOnce(ctx)
	elapsed := p.clock.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			p.logger.Debug("Fetch #%d cancelled", seq)
			return
		}
		p.metrics.ObserveFetch(outcomeOf(err), elapsed)
		p.errors.Handle(err, p.source.Name()+" fetch")
		return
	}

	p.metrics.ObserveFetch(metrics.OutcomeSuccess, elapsed)
	p.errors.ResetErrorCount()

	snap.Sequence = seq
	if !p.applier.ApplyPrice(snap) {
		p.metrics.IncStale()
		p.logger.Debug("Discarded stale fetch #%d", seq)
		return
	}
	p.lastSuccess.Store(snap.FetchedAt.Unix())
	p.logger.Debug("Applied fetch #%d: BTC %s, 1 sat = %s", seq, snap.BtcPriceUsd.String(), state.DeriveSatPrice(snap.BtcPriceUsd).String())
}

// -----------------------------------------------------------------------------

// ConsecutiveFailures returns the number of failed fetches since the last
// successful one.
func (p *Poller) ConsecutiveFailures() int {
	return p.errors.ConsecutiveErrors()
}

// -----------------------------------------------------------------------------

// TotalFailures returns the number of failed fetches since start.
func (p *Poller) TotalFailures() int {
	return p.errors.TotalErrors()
}

// -----------------------------------------------------------------------------

// LastSuccess returns the unix time of the newest applied fetch, 0 if none.
func (p *Poller) LastSuccess() int64 {
	return p.lastSuccess.Load()
}

// -----------------------------------------------------------------------------

func outcomeOf(err error) string {
	fe, ok := helpers.AsFetchError(err)
	if !ok {
		return metrics.OutcomeNetwork
	}
	switch fe.Kind {
	case helpers.FetchStatus:
		return metrics.OutcomeStatus
	case helpers.FetchParse:
		return metrics.OutcomeParse
	default:
		return metrics.OutcomeNetwork
	}
}
