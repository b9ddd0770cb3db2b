// internal/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

const enrollmentQueue = "retention_enrollments"

// Enrollment is published once per successful dispatch so downstream
// consumers (analytics, CRM sync) can follow along. Publishing is an
// output sink only; the run never reads from the broker.
type Enrollment struct {
	RunID      string    `json:"run_id"`
	UserID     int       `json:"user_id"`
	CampaignID string    `json:"campaign_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// Publisher emits enrollment events. A nil Publisher is valid and means
// eventing is disabled.
type Publisher interface {
	PublishEnrollment(ctx context.Context, e Enrollment) error
	Close() error
}

// AMQPPublisher publishes enrollments to a durable RabbitMQ queue.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial connects to RabbitMQ and declares the enrollment queue.
func Dial(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		enrollmentQueue, // name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &AMQPPublisher{conn: conn, ch: ch}, nil
}

// PublishEnrollment sends one enrollment event. The underlying Publish
// call takes no context, so cancellation is checked up front.
func (p *AMQPPublisher) PublishEnrollment(ctx context.Context, e Enrollment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.ch.Publish(
		"",              // exchange
		enrollmentQueue, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Close shuts down the channel and connection.
func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
