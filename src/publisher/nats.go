package publisher

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"satoshi-drop/src/interfaces"
	"satoshi-drop/src/logger"
	"satoshi-drop/src/metrics"
	"satoshi-drop/src/models"
)

const (
	DefaultSubject = "satoshi.display"

	maxReconnects = -1 // forever
	reconnectWait = 2 * time.Second
)

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// -----------------------------------------------------------------------------
// NatsPublisher forwards every display update to NATS core subjects:
// <prefix>.countdown and <prefix>.price. Delivery is best effort.
// -----------------------------------------------------------------------------

type NatsPublisher struct {
	nc      conn
	prefix  string
	metrics *metrics.Metrics
	logger  *logger.Logger
}

var _ interfaces.IPublisher = (*NatsPublisher)(nil)

// -----------------------------------------------------------------------------

func NewNatsPublisher(cfg models.MPublisherConfig, m *metrics.Metrics, log *logger.Logger) (*NatsPublisher, error) {
	if log == nil {
		log = logger.NewLogger(nil, "NatsPublisher")
	}

	opts := []nats.Option{
		nats.Name("satoshi-drop"),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warning("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error("NATS error: %v", err)
		}),
	}

	nc, err := nats.Connect(cfg.NatsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	log.Info("Publishing display updates to %s.*", subjectPrefix(cfg.Subject))
	return newPublisher(nc, cfg.Subject, m, log), nil
}

// -----------------------------------------------------------------------------

func newPublisher(nc conn, subject string, m *metrics.Metrics, log *logger.Logger) *NatsPublisher {
	return &NatsPublisher{
		nc:      nc,
		prefix:  subjectPrefix(subject),
		metrics: m,
		logger:  log,
	}
}

// -----------------------------------------------------------------------------

// Subject returns the subject an update of the given type is published on.
func (p *NatsPublisher) Subject(kind string) string {
	switch kind {
	case models.DisplayCountdown:
		return p.prefix + "." + models.TopicCountdown
	case models.DisplayPrice:
		return p.prefix + "." + models.TopicPrice
	default:
		return p.prefix + ".state"
	}
}

// -----------------------------------------------------------------------------

func (p *NatsPublisher) Publish(update models.MDisplayData) error {
	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal %s update: %w", update.Type, err)
	}

	err = p.nc.Publish(p.Subject(update.Type), data)
	p.metrics.ObservePublish(err)
	if err != nil {
		return fmt.Errorf("publish %s update: %w", update.Type, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Listener adapts Publish to a store listener; failures are logged.
func (p *NatsPublisher) Listener() func(models.MDisplayData) {
	return func(update models.MDisplayData) {
		if err := p.Publish(update); err != nil {
			p.logger.Debug("%v", err)
		}
	}
}

// -----------------------------------------------------------------------------

// Close flushes pending messages and closes the connection.
func (p *NatsPublisher) Close() error {
	return p.nc.Drain()
}

// -----------------------------------------------------------------------------

func subjectPrefix(subject string) string {
	subject = strings.Trim(strings.TrimSpace(subject), ".")
	if subject == "" {
		return DefaultSubject
	}
	return subject
}
