// Package events publishes report lifecycle events to a RabbitMQ
// topic exchange for downstream consumers. The publisher is optional:
// a nil *Publisher is a no-op, so the service runs without a broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/campuslf/lostfound/internal/models"
)

// ReportEvent is the payload for report.submitted and report.deleted.
type ReportEvent struct {
	ID        string        `json:"id"`
	Title     string        `json:"title,omitempty"`
	Category  string        `json:"category,omitempty"`
	Location  string        `json:"location,omitempty"`
	Status    models.Status `json:"status"`
	ImageURL  string        `json:"image_url,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Publisher handles publishing messages to RabbitMQ.
type Publisher struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	exchangeName string
	url          string
}

// NewPublisher connects to RabbitMQ and declares the topic exchange.
func NewPublisher(url, exchangeName string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare the exchange (idempotent)
	err = channel.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	publisher := &Publisher{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		url:          url,
	}

	go publisher.handleReconnect()

	log.Info().
		Str("exchange", exchangeName).
		Msg("RabbitMQ publisher initialized")

	return publisher, nil
}

// ReportSubmitted publishes a report.submitted event.
func (p *Publisher) ReportSubmitted(ctx context.Context, report *models.ItemReport) error {
	if p == nil {
		return nil
	}
	return p.publish(ctx, "report.submitted", ReportEvent{
		ID:        report.ID,
		Title:     report.Title,
		Category:  report.Category,
		Location:  report.Location,
		Status:    report.Status,
		ImageURL:  report.ImageURL,
		Timestamp: time.Now(),
	})
}

// ReportDeleted publishes a report.deleted event.
func (p *Publisher) ReportDeleted(ctx context.Context, id string, status models.Status) error {
	if p == nil {
		return nil
	}
	return p.publish(ctx, "report.deleted", ReportEvent{
		ID:        id,
		Status:    status,
		Timestamp: time.Now(),
	})
}

// publish publishes a message to the exchange with the given routing key
func (p *Publisher) publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
			MessageId:    fmt.Sprintf("%d", time.Now().UnixNano()),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	log.Info().
		Str("routing_key", routingKey).
		Str("exchange", p.exchangeName).
		Int("body_size", len(body)).
		Msg("Message published to RabbitMQ")

	return nil
}

// handleReconnect handles automatic reconnection on connection loss
func (p *Publisher) handleReconnect() {
	closeChan := make(chan *amqp.Error)
	p.conn.NotifyClose(closeChan)

	for closeErr := range closeChan {
		if closeErr != nil {
			log.Error().
				Err(closeErr).
				Msg("RabbitMQ connection closed, attempting to reconnect...")

			for {
				time.Sleep(5 * time.Second)

				conn, err := amqp.Dial(p.url)
				if err != nil {
					log.Error().Err(err).Msg("Failed to reconnect to RabbitMQ")
					continue
				}

				channel, err := conn.Channel()
				if err != nil {
					conn.Close()
					log.Error().Err(err).Msg("Failed to open channel")
					continue
				}

				err = channel.ExchangeDeclare(
					p.exchangeName,
					"topic",
					true,
					false,
					false,
					false,
					nil,
				)
				if err != nil {
					channel.Close()
					conn.Close()
					log.Error().Err(err).Msg("Failed to declare exchange")
					continue
				}

				p.conn = conn
				p.channel = channel

				log.Info().Msg("Successfully reconnected to RabbitMQ")

				closeChan = make(chan *amqp.Error)
				p.conn.NotifyClose(closeChan)
				break
			}
		}
	}
}

// Close closes the RabbitMQ connection
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close RabbitMQ connection")
			return err
		}
	}
	log.Info().Msg("RabbitMQ publisher closed")
	return nil
}

// HealthCheck verifies the RabbitMQ connection
func (p *Publisher) HealthCheck() error {
	if p == nil {
		return nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		return fmt.Errorf("RabbitMQ connection is closed")
	}
	if p.channel == nil {
		return fmt.Errorf("RabbitMQ channel is nil")
	}
	return nil
}
