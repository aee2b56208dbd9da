package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"tally/internal/metrics"
)

// Circuit breaker states. The zero value is closed so a freshly built
// client starts admitting publishes.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 3
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second
)

var errDeliveriesClosed = errors.New("delivery channel closed")

// Client is an AMQP publisher and consumer for budget alerts. Publishing
// runs behind a circuit breaker: after maxFailures connection errors the
// circuit opens and publishes fail fast until openTimeout has passed.
type Client struct {
	mu           sync.Mutex
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	url          string
	exchangeName string
	queueName    string

	failureCount int64
	state        int32
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	client.mu.Lock()
	err := client.dial()
	client.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return client, nil
}

// dial connects and declares the topology. Callers hold mu.
func (c *Client) dial() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		c.recordFailure()
		return fmt.Errorf("open channel: %w", err)
	}

	c.conn = conn
	c.channel = channel

	if err := c.setup(); err != nil {
		channel.Close()
		conn.Close()
		c.conn = nil
		c.channel = nil
		c.recordFailure()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.recordSuccess()
	return nil
}

func (c *Client) setup() error {
	// Declare exchange
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Declare queue
	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Bind queue to exchange
	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishBudgetAlert publishes one alert as a persistent JSON message.
// When the circuit is open it fails fast without touching the broker.
func (c *Client) PublishBudgetAlert(ctx context.Context, msg *BudgetAlertMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.isCircuitOpen() {
		return fmt.Errorf("publish budget alert: circuit breaker is open")
	}

	body, err := msg.ToJSON()
	if err != nil {
		return err
	}

	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		return fmt.Errorf("publish budget alert: not connected")
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent, // survive broker restarts
			MessageId:    msg.ID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		if isConnectionError(err) {
			c.recordFailure()
		}
		return fmt.Errorf("publish message: %w", err)
	}

	c.recordSuccess()
	metrics.AlertsPublished.WithLabelValues(msg.State).Inc()

	slog.InfoContext(ctx, "Published budget alert",
		"message_id", msg.ID,
		"budget_id", msg.BudgetID,
		"state", msg.State,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// ConsumeBudgetAlerts consumes alerts until ctx is cancelled, invoking
// handler for each. A handler error nacks the delivery back onto the
// queue; an undecodable body is dropped. When the broker connection dies
// the consumer backs off exponentially and reconnects.
func (c *Client) ConsumeBudgetAlerts(ctx context.Context, handler func(*BudgetAlertMessage) error) error {
	for attempt := 0; ; attempt++ {
		err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "Alert consumer lost the broker",
			"error", err,
			"retry_in", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if err := c.reconnect(); err != nil {
			slog.ErrorContext(ctx, "Broker reconnect failed", "error", err)
			continue
		}
		attempt = -1 // fresh connection, reset the backoff
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler func(*BudgetAlertMessage) error) error {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		return fmt.Errorf("not connected")
	}

	msgs, err := channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming budget alerts", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping alert consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errDeliveriesClosed
			}

			msg, err := BudgetAlertMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal alert", "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle alert",
					"error", err,
					"message_id", msg.ID,
					"budget_id", msg.BudgetID)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false) // acknowledge successful processing
			slog.DebugContext(ctx, "Processed budget alert",
				"message_id", msg.ID,
				"budget_id", msg.BudgetID,
				"state", msg.State)
		}
	}
}

// reconnect tears down whatever is left of the old connection and dials a
// fresh one.
func (c *Client) reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	return c.dial()
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// isCircuitOpen reports whether publishes should fail fast. An open
// circuit older than openTimeout moves to half-open so the next publish
// can probe the broker.
func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	if time.Since(c.lastFailure) > openTimeout {
		atomic.StoreInt32(&c.state, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	failures := atomic.AddInt64(&c.failureCount, 1)
	c.lastFailure = time.Now()
	if failures >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// exponentialBackoff doubles from one second per attempt, capped at
// maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	backoff := time.Second << uint(attempt)
	if backoff <= 0 || backoff > maxBackoff {
		return maxBackoff
	}
	return backoff
}

// isConnectionError reports whether err looks like a broken broker
// connection rather than a protocol or application error.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, fragment := range []string{
		"connection refused",
		"connection closed",
		"unexpected EOF",
		"broken pipe",
		"use of closed network connection",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
