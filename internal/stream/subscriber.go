package stream

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"triagedesk/pkg/mq"
)

// Event is one change notification, regardless of where it came from.
// Broker-backed events carry the routing key they were published under;
// the polling fallback emits RKDashboardRefreshed.
type Event struct {
	RoutingKey string          `json:"routing_key"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Source delivers change events on a channel. Subscriber (broker) and
// Poller (degraded mode) both satisfy it, so consumers never know which
// mode they are running in.
type Source interface {
	Events() <-chan Event
	Run(ctx context.Context) error
}

// Subscriber is the broker-backed Source. It binds one durable queue to
// every triage routing key and forwards deliveries onto its channel.
type Subscriber struct {
	consumer *mq.Consumer
	events   chan Event
	logger   *zap.Logger
}

// NewSubscriber connects to the broker. queueName should be unique per
// consumer group; the "#" binding receives every event on the exchange.
func NewSubscriber(url, queueName string, logger *zap.Logger) (*Subscriber, error) {
	consumer, err := mq.NewConsumer(url, queueName, "#", logger)
	if err != nil {
		return nil, err
	}

	s := &Subscriber{
		consumer: consumer,
		events:   make(chan Event, 64),
		logger:   logger,
	}
	consumer.SetHandler(s.handle)
	return s, nil
}

func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Run blocks consuming from the broker until the connection drops or ctx
// is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.consumer.Close()
	}()

	defer close(s.events)
	return s.consumer.StartConsuming()
}

func (s *Subscriber) handle(ctx context.Context, routingKey string, data json.RawMessage) error {
	if !json.Valid(data) {
		// Drop malformed events rather than requeue them forever.
		s.logger.Warn("Dropping malformed event", zap.String("routing_key", routingKey))
		return nil
	}

	evt := Event{
		RoutingKey: routingKey,
		Payload:    data,
		ReceivedAt: time.Now(),
	}

	select {
	case s.events <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
