package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher delivers reservation events to a broker.  Callers treat
// failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, ev ReservationEvent) error
}

// RabbitPublisher publishes to a durable queue on the default exchange.
// It dials a new connection for every publish.
type RabbitPublisher struct {
	URL    string
	Queue  string
	logger *logrus.Logger
}

func NewRabbitPublisher(url, queue string, logger *logrus.Logger) *RabbitPublisher {
	return &RabbitPublisher{URL: url, Queue: queue, logger: logger}
}

// Publish sends ev as a persistent JSON message routed by queue name.
// Any error is logged and returned.
func (p *RabbitPublisher) Publish(ctx context.Context, ev ReservationEvent) error {
	log := p.logger.WithFields(logrus.Fields{
		"queue":          p.Queue,
		"event":          ev.Type,
		"reservation_id": ev.ReservationID,
	})
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		p.Queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		log.WithError(err).Warn("rabbitmq: queue declare failed")
		return err
	}

	pub, err := publishing(ev, time.Now())
	if err != nil {
		log.WithError(err).Warn("rabbitmq: marshal event failed")
		return err
	}
	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.Queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		log.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	log.Debug("rabbitmq: event published")
	return nil
}

func publishing(ev ReservationEvent, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    ev.ReservationID + ":" + string(ev.Type),
		Type:         string(ev.Type),
		Timestamp:    now.UTC(),
		Body:         body,
	}, nil
}

// NopPublisher drops every event.  Used when EVENT_BROKER=none.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ReservationEvent) error { return nil }
