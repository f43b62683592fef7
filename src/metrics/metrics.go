package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"satoshi-drop/src/models"
)

const namespace = "satoshi_drop"

// Fetch outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeNetwork = "network"
	OutcomeStatus  = "status"
	OutcomeParse   = "parse"
)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

// -----------------------------------------------------------------------------
// Metrics holds every collector on a private registry. A nil *Metrics is
// valid and records nothing.
// -----------------------------------------------------------------------------

type Metrics struct {
	registry *prometheus.Registry

	fetchTotal         *prometheus.CounterVec
	fetchDuration      prometheus.Histogram
	staleResponses     prometheus.Counter
	btcPrice           prometheus.Gauge
	satPrice           prometheus.Gauge
	countdownRemaining prometheus.Gauge
	wsClients          prometheus.Gauge
	requestTotal       *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	subscribers        *prometheus.CounterVec
	published          *prometheus.CounterVec
}

// -----------------------------------------------------------------------------

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "price",
			Name:      "fetch_total",
			Help:      "Spot price fetches by outcome",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "price",
			Name:      "fetch_duration_seconds",
			Help:      "Latency of spot price fetches",
			Buckets:   histogramBuckets,
		}),
		staleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "price",
			Name:      "stale_responses_total",
			Help:      "Fetch results discarded because a newer one was already applied",
		}),
		btcPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "price",
			Name:      "btc_usd",
			Help:      "Last applied BTC price in USD",
		}),
		satPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "price",
			Name:      "sat_usd",
			Help:      "Last applied satoshi price in USD",
		}),
		countdownRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "countdown",
			Name:      "remaining_seconds",
			Help:      "Seconds left on the launch countdown",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Connected websocket clients",
		}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route"}),
		subscribers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "newsletter",
			Name:      "signups_total",
			Help:      "Newsletter signups by result",
		}, []string{"result"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publisher",
			Name:      "messages_total",
			Help:      "Bus publications by result",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.fetchTotal,
		m.fetchDuration,
		m.staleResponses,
		m.btcPrice,
		m.satPrice,
		m.countdownRemaining,
		m.wsClients,
		m.requestTotal,
		m.requestDuration,
		m.subscribers,
		m.published,
	)
	return m
}

// -----------------------------------------------------------------------------

// Registry exposes the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// -----------------------------------------------------------------------------

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// -----------------------------------------------------------------------------

func (m *Metrics) ObserveFetch(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// -----------------------------------------------------------------------------

func (m *Metrics) IncStale() {
	if m == nil {
		return
	}
	m.staleResponses.Inc()
}

// -----------------------------------------------------------------------------

func (m *Metrics) SetPrice(p models.MPriceState) {
	if m == nil || !p.Loaded {
		return
	}
	m.btcPrice.Set(p.BtcPriceUsd)
	m.satPrice.Set(p.SatUnitPriceUsd)
}

// -----------------------------------------------------------------------------

func (m *Metrics) SetCountdown(c models.MCountdownState) {
	if m == nil {
		return
	}
	m.countdownRemaining.Set(float64(c.TotalSeconds()))
}

// -----------------------------------------------------------------------------

func (m *Metrics) SetClients(n int) {
	if m == nil {
		return
	}
	m.wsClients.Set(float64(n))
}

// -----------------------------------------------------------------------------

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// -----------------------------------------------------------------------------

// ObserveSignup records a newsletter result: created, existing or invalid.
func (m *Metrics) ObserveSignup(result string) {
	if m == nil {
		return
	}
	m.subscribers.WithLabelValues(result).Inc()
}

// -----------------------------------------------------------------------------

func (m *Metrics) ObservePublish(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.published.WithLabelValues(result).Inc()
}
