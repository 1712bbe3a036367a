package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"bahikhata/internal/log"
)

// Circuit breaker states. The breaker trips after maxFailures consecutive
// publish failures and re-probes after openTimeout.
const (
	StateClosed = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures = 5
	openTimeout = 30 * time.Second
)

// Client wraps an AMQP connection used to publish and consume
// transaction export events.
type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel

	failureCount int
	state        int
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		state:        StateClosed,
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		c.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	queue, err := channel.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(
		queue.Name,
		"transaction.export",
		c.exchangeName,
		false,
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = channel
	c.mu.Unlock()
	return nil
}

// reconnect tears down the current connection and retries with backoff.
func (c *Client) reconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(exponentialBackoff(attempt)):
		}
		if lastErr = c.connect(); lastErr == nil {
			slog.InfoContext(ctx, "reconnected to RabbitMQ", log.FieldAttempt, attempt+1)
			return nil
		}
		slog.WarnContext(ctx, "RabbitMQ reconnect failed",
			log.FieldAttempt, attempt+1,
			log.FieldError, lastErr)
	}
	return fmt.Errorf("reconnect exhausted: %w", lastErr)
}

// PublishTransactionExport publishes a durable export event for the given
// transaction. The circuit breaker short-circuits publishing while the
// broker is known to be down.
func (c *Client) PublishTransactionExport(ctx context.Context, msg *TransactionExportMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("circuit breaker open, skipping publish")
	}

	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()

	err = channel.PublishWithContext(
		pubCtx,
		c.exchangeName,
		"transaction.export",
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			if rerr := c.reconnect(ctx); rerr == nil {
				return c.PublishTransactionExport(ctx, msg)
			}
		}
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.recordSuccess()
	slog.DebugContext(ctx, "published transaction export event",
		log.FieldTransactionID, msg.TransactionID)
	return nil
}

// ConsumeTransactionExports delivers export events to handler. Messages are
// acked only after the handler succeeds; failures are nacked and requeued.
func (c *Client) ConsumeTransactionExports(ctx context.Context, handler func(context.Context, *TransactionExportMessage) error) error {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()

	deliveries, err := channel.Consume(
		c.queueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			msg, err := TransactionExportMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "failed to decode export message", log.FieldError, err)
				delivery.Nack(false, false) // malformed, drop
				continue
			}
			if err := handler(ctx, msg); err != nil {
				slog.ErrorContext(ctx, "export handler failed",
					log.FieldTransactionID, msg.TransactionID,
					log.FieldError, err)
				delivery.Nack(false, true) // requeue for retry
				continue
			}
			delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) isCircuitOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateOpen {
		if time.Since(c.lastFailure) > openTimeout {
			c.state = StateHalfOpen
			return false
		}
		return true
	}
	return false
}

func (c *Client) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failureCount = 0
	c.state = StateClosed
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failureCount++
	c.lastFailure = time.Now()
	if c.failureCount >= maxFailures || c.state == StateHalfOpen {
		c.state = StateOpen
	}
}

func exponentialBackoff(attempt int) time.Duration {
	backoff := time.Second * time.Duration(1<<uint(attempt))
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range []string{
		"connection refused",
		"channel/connection is not open",
		"connection reset",
		"broken pipe",
		"EOF",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
