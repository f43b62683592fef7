package datasource

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"satoshi-drop/src/helpers"
	"satoshi-drop/src/logger"
	"satoshi-drop/src/metrics"
	"satoshi-drop/src/models"
	"satoshi-drop/src/state"
)

var start = time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)

// -----------------------------------------------------------------------------

type result struct {
	snap models.MPriceSnapshot
	err  error
}

type pendingFetch struct {
	reply chan result
}

// scriptedSource hands every call to the test, which decides when and how it
// completes.
type scriptedSource struct {
	calls chan *pendingFetch
}

func newScriptedSource() *scriptedSource {
	return &scriptedSource{calls: make(chan *pendingFetch, 8)}
}

func (s *scriptedSource) Name() string { return "scripted" }

func (s *scriptedSource) FetchOnce(ctx context.Context) (models.MPriceSnapshot, error) {
	p := &pendingFetch{reply: make(chan result, 1)}
	s.calls <- p
	select {
	case r := <-p.reply:
		return r.snap, r.err
	case <-ctx.Done():
		return models.MPriceSnapshot{}, helpers.NewFetchNetworkError(ctx.Err())
	}
}

func price(amount string) result {
	return result{snap: models.MPriceSnapshot{BtcPriceUsd: decimal.RequireFromString(amount), FetchedAt: start}}
}

// recordingApplier forwards to a Store and reports every decision.
type recordingApplier struct {
	store   *state.Store
	applied chan bool
}

func (a *recordingApplier) ApplyPrice(snap models.MPriceSnapshot) bool {
	ok := a.store.ApplyPrice(snap)
	a.applied <- ok
	return ok
}

// -----------------------------------------------------------------------------

type harness struct {
	t       *testing.T
	clock   *clockwork.FakeClock
	source  *scriptedSource
	store   *state.Store
	applier *recordingApplier
	metrics *metrics.Metrics
	poller  *Poller
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

func startPoller(t *testing.T) *harness {
	t.Helper()

	clock := clockwork.NewFakeClockAt(start)
	store := state.NewStore(models.MCountdownState{}, 16, clock)
	h := &harness{
		t:       t,
		clock:   clock,
		source:  newScriptedSource(),
		store:   store,
		applier: &recordingApplier{store: store, applied: make(chan bool, 8)},
		metrics: metrics.New(),
		done:    make(chan struct{}),
	}
	h.poller = NewPoller(h.source, h.applier, PollerOptions{
		Interval: 10 * time.Second,
		Clock:    clock,
		Metrics:  h.metrics,
		Logger:   logger.NewLoggerWithWriter(io.Discard, "ERROR", "test"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		h.poller.Run(ctx)
		close(h.done)
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	if err := clock.BlockUntilContext(waitCtx, 1); err != nil {
		t.Fatalf("ticker never registered: %v", err)
	}

	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	h.once.Do(func() {
		h.cancel()
		select {
		case <-h.done:
		case <-time.After(2 * time.Second):
			h.t.Errorf("poller did not stop")
		}
	})
}

func (h *harness) nextCall() *pendingFetch {
	h.t.Helper()
	select {
	case p := <-h.source.calls:
		return p
	case <-time.After(2 * time.Second):
		h.t.Fatalf("expected a fetch")
		return nil
	}
}

func (h *harness) nextDecision() bool {
	h.t.Helper()
	select {
	case ok := <-h.applier.applied:
		return ok
	case <-time.After(2 * time.Second):
		h.t.Fatalf("expected an apply decision")
		return false
	}
}

// -----------------------------------------------------------------------------

func TestPollerFetchesImmediately(t *testing.T) {
	h := startPoller(t)

	if h.store.Snapshot().SatPriceDisplay != state.LoadingText {
		t.Fatalf("price must be loading before the first fetch completes")
	}

	h.nextCall().reply <- price("65000")
	if !h.nextDecision() {
		t.Fatalf("first fetch must be applied")
	}

	if got := h.store.Snapshot().SatPriceDisplay; got != "0.00065000" {
		t.Fatalf("expected 0.00065000, got %q", got)
	}
	if h.poller.LastSuccess() != start.Unix() {
		t.Fatalf("unexpected last success %d", h.poller.LastSuccess())
	}
}

func TestPollerFetchesEveryInterval(t *testing.T) {
	h := startPoller(t)

	h.nextCall().reply <- price("65000")
	h.nextDecision()

	h.clock.Advance(10 * time.Second)
	h.nextCall().reply <- price("66000")
	if !h.nextDecision() {
		t.Fatalf("second fetch must be applied")
	}
	if h.store.Price().BtcPriceUsd != 66000 || h.store.Price().Sequence != 2 {
		t.Fatalf("unexpected price %+v", h.store.Price())
	}
}

func TestPollerDiscardsOutOfOrderResponse(t *testing.T) {
	h := startPoller(t)

	first := h.nextCall()
	h.clock.Advance(10 * time.Second)
	second := h.nextCall()

	second.reply <- price("70000")
	if !h.nextDecision() {
		t.Fatalf("newer response must be applied")
	}

	first.reply <- price("60000")
	if h.nextDecision() {
		t.Fatalf("older response must be discarded")
	}

	if h.store.Price().BtcPriceUsd != 70000 {
		t.Fatalf("older response overwrote newer price: %+v", h.store.Price())
	}
	expected := `
# HELP satoshi_drop_price_stale_responses_total Fetch results discarded because a newer one was already applied
# TYPE satoshi_drop_price_stale_responses_total counter
satoshi_drop_price_stale_responses_total 1
`
	deadline := time.Now().Add(2 * time.Second)
	for {
		err := testutil.GatherAndCompare(h.metrics.Registry(), strings.NewReader(expected), "satoshi_drop_price_stale_responses_total")
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("stale response not counted: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPollerKeepsStateOnError(t *testing.T) {
	h := startPoller(t)

	h.nextCall().reply <- price("65000")
	h.nextDecision()
	before := h.store.Price()

	h.clock.Advance(10 * time.Second)
	h.nextCall().reply <- result{err: helpers.NewFetchStatusError(503)}

	h.clock.Advance(10 * time.Second)
	h.nextCall().reply <- result{err: helpers.NewFetchParseError("bad", errors.New("x"))}

	deadline := time.Now().Add(2 * time.Second)
	for h.poller.ConsecutiveFailures() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 2 consecutive failures, got %d", h.poller.ConsecutiveFailures())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if h.store.Price() != before {
		t.Fatalf("failed fetch changed the price: %+v", h.store.Price())
	}

	h.clock.Advance(10 * time.Second)
	h.nextCall().reply <- price("67000")
	h.nextDecision()
	if h.poller.ConsecutiveFailures() != 0 {
		t.Fatalf("success must reset the failure counter")
	}
	if h.poller.TotalFailures() != 2 {
		t.Fatalf("expected 2 failures in total, got %d", h.poller.TotalFailures())
	}
}

func TestPollerStaysLoadingUntilFirstSuccess(t *testing.T) {
	h := startPoller(t)

	h.nextCall().reply <- result{err: helpers.NewFetchNetworkError(errors.New("dns"))}

	deadline := time.Now().Add(2 * time.Second)
	for h.poller.ConsecutiveFailures() < 1 {
		if time.Now().After(deadline) {
			t.Fatalf("failure not recorded")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := h.store.Snapshot().SatPriceDisplay; got != state.LoadingText {
		t.Fatalf("expected loading text after a failed first fetch, got %q", got)
	}
}

func TestPollerDrainsInFlightFetchesOnStop(t *testing.T) {
	h := startPoller(t)

	h.nextCall() // never answered; cancellation must release it
	h.stop()

	select {
	case <-h.done:
	default:
		t.Fatalf("Run returned before draining")
	}
	if h.poller.ConsecutiveFailures() != 0 {
		t.Fatalf("cancelled fetch must not count as a failure")
	}
}
