package notification

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPSink mirrors dashboard events to a fanout exchange so other services
// can follow the clinic's activity.
type AMQPSink struct {
	conn     *amqp091.Connection
	exchange string

	mu      sync.Mutex
	channel *amqp091.Channel
}

// NewAMQPSink dials url and declares exchange as a durable fanout.
func NewAMQPSink(url, exchange string) (*AMQPSink, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "connect to rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "open rabbitmq channel")
	}
	if err := ch.ExchangeDeclare(exchange, amqp091.ExchangeFanout, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %s", exchange)
	}
	utils.GetLogger().Info("Connected to RabbitMQ", zap.String("exchange", exchange))
	return &AMQPSink{conn: conn, exchange: exchange, channel: ch}, nil
}

func (s *AMQPSink) Name() string { return "amqp" }

// Publish sends event as a transient JSON message. Delivery is not confirmed.
func (s *AMQPSink) Publish(ctx context.Context, event models.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "encode event %s", event.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channel.IsClosed() {
		ch, err := s.conn.Channel()
		if err != nil {
			return errors.Wrap(err, "reopen rabbitmq channel")
		}
		s.channel = ch
	}

	return s.channel.PublishWithContext(ctx, s.exchange, event.Name, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Transient,
		Timestamp:    time.Now(),
		Type:         event.Name,
		Body:         body,
	})
}

func (s *AMQPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channel != nil {
		s.channel.Close()
	}
	return s.conn.Close()
}
