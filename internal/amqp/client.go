// Package amqp carries both directions of queue traffic: inbound
// storage-change notifications consumed in batches, and outbound report and
// alert notifications published to topics on a direct exchange.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type Client struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	queue    string
	log      zerolog.Logger
}

func NewClient(url, exchange, queue string, log zerolog.Logger) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		queue:    queue,
		log:      log,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchange, // name
		"direct",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		c.queue,    // queue name
		c.queue,    // routing key (same as queue name for direct exchange)
		c.exchange, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// Publish sends one notification to a topic (the routing key). Fire and
// forget from the caller's perspective; any delivery failure surfaces
// synchronously as the returned error.
func (c *Client) Publish(ctx context.Context, topic, subject, body string) error {
	payload, err := json.Marshal(Notification{
		Subject:   subject,
		Message:   body,
		Timestamp: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchange, // exchange
		topic,      // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         payload,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// ConsumeBatches reads storage notifications off the queue and hands them to
// the handler in batches of up to batchSize, flushing a partial batch after
// flushInterval. Messages are acked once their batch has been handed over;
// the handler owns per-item failure isolation, so nothing is requeued.
func (c *Client) ConsumeBatches(ctx context.Context, batchSize int, flushInterval time.Duration, handler func(ctx context.Context, bodies [][]byte)) error {
	msgs, err := c.channel.Consume(
		c.queue, // queue
		"",      // consumer
		false,   // auto-ack (we ack after handing the batch over)
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.log.Info().Str("queue", c.queue).Msg("Started consuming storage notifications")

	var pending []amqp091.Delivery
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		bodies := make([][]byte, len(pending))
		for i, d := range pending {
			bodies[i] = d.Body
		}
		handler(ctx, bodies)
		for _, d := range pending {
			if err := d.Ack(false); err != nil {
				c.log.Error().Err(err).Msg("Failed to ack delivery")
			}
		}
		pending = pending[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			c.log.Info().Str("queue", c.queue).Msg("Stopping message consumption")
			return ctx.Err()
		case <-ticker.C:
			flush()
		case delivery, ok := <-msgs:
			if !ok {
				flush()
				return fmt.Errorf("message channel closed")
			}
			pending = append(pending, delivery)
			if len(pending) >= batchSize {
				flush()
			}
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
