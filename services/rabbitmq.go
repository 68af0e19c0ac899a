package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitBus publishes post events to a fanout exchange; every server
// instance binds its own exclusive queue so each one sees every event.
type RabbitBus struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// InitRabbitMQ подключается к брокеру и объявляет exchange
func InitRabbitMQ(url, exchange string) (*RabbitBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(
		exchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // args
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	log.Printf("RabbitMQ initialized, exchange=%s", exchange)
	return &RabbitBus{conn: conn, channel: channel, exchange: exchange}, nil
}

func (b *RabbitBus) PublishPostCreated(ctx context.Context, event PostCreatedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return b.channel.PublishWithContext(ctx,
		b.exchange,
		"",
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// SubscribePostCreated запускает консьюмер; он живёт, пока не отменён ctx
func (b *RabbitBus) SubscribePostCreated(ctx context.Context, handler PostCreatedHandler) error {
	q, err := b.channel.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := b.channel.QueueBind(q.Name, "", b.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	msgs, err := b.channel.Consume(
		q.Name,
		"",
		true,  // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Println("ERROR: post event channel closed")
					return
				}
				var event PostCreatedEvent
				if err := json.Unmarshal(msg.Body, &event); err != nil {
					log.Println("ERROR: failed to unmarshal post event:", err)
					continue
				}
				handler(ctx, event)
			}
		}
	}()
	return nil
}

func (b *RabbitBus) Close() error {
	if err := b.channel.Close(); err != nil {
		b.conn.Close()
		return err
	}
	return b.conn.Close()
}
