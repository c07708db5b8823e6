package event

import (
	"encoding/json"
	"time"

	"github.com/streadway/amqp"
)

// Routing keys for placement lifecycle events.
const (
	SessionStarted   = "placement.session.started"
	QuestionIssued   = "placement.question.issued"
	AnswerSubmitted  = "placement.answer.submitted"
	SessionCompleted = "placement.session.completed"
	SessionAbandoned = "placement.session.abandoned"
)

// Publisher emits placement events. Handlers publish best-effort, so a
// nil or failing publisher never blocks the API path.
type Publisher interface {
	Publish(eventType string, payload interface{}) error
}

// AMQPPublisher publishes placement events to a durable topic exchange,
// with the event type as the routing key.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewAMQPPublisher(amqpURL, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(eventType string, payload interface{}) error {
	event := map[string]interface{}{
		"type":        eventType,
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
		"payload":     payload,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.channel.Publish(
		p.exchange,
		eventType, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
