// Package service holds collaborators that handlers call after a successful
// write.  EventPublisher hands catalog events to RabbitMQ.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/movie-scheduler/internal/logging"
	"github.com/iliyamo/movie-scheduler/internal/metrics"
	"github.com/iliyamo/movie-scheduler/internal/queue"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher closed")

// EventPublisher publishes CatalogEvents to the durable catalog queue.  The
// broker connection is opened lazily and re-opened after it breaks; a failed
// publish is reported to the caller and never retried.
type EventPublisher struct {
	url string

	// sem is a one-slot lock over conn, ch and closed.  Unlike a mutex,
	// waiting for it gives up when the caller's context ends.
	sem    chan struct{}
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
}

// dialTimeout bounds the TCP connect and AMQP handshake when the caller's
// context has no deadline.
const dialTimeout = 30 * time.Second

// NewEventPublisher returns a publisher for the broker at url.  No
// connection is made until the first Publish.
func NewEventPublisher(url string) *EventPublisher {
	return &EventPublisher{url: url, sem: make(chan struct{}, 1)}
}

func (p *EventPublisher) lock(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *EventPublisher) unlock() { <-p.sem }

// Publish sends ev as a persistent JSON message.  Messages are marked
// persistent and routed through the default exchange.
func (p *EventPublisher) Publish(ctx context.Context, ev queue.CatalogEvent) error {
	err := p.publish(ctx, ev)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.CatalogEventsPublished.WithLabelValues(ev.Entity, ev.Action, result).Inc()
	return err
}

func (p *EventPublisher) publish(ctx context.Context, ev queue.CatalogEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.lock(ctx); err != nil {
		return fmt.Errorf("wait for broker connection: %w", err)
	}
	defer p.unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.CatalogQueueName, false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// channel returns an open channel, dialing when needed.  The dial and
// handshake end with ctx.  Callers hold the lock.
func (p *EventPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.closed {
		return nil, ErrPublisherClosed
	}
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.DialConfig(p.url, amqp.Config{Locale: "en_US", Dial: contextDialer(ctx)})
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue.CatalogQueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	logging.With("publisher").Debug().Str("queue", queue.CatalogQueueName).Msg("broker connection opened")
	return ch, nil
}

// contextDialer connects within ctx and sets the handshake deadline to the
// context deadline.  amqp clears it once the connection is open.
func contextDialer(ctx context.Context) func(network, addr string) (net.Conn, error) {
	return func(network, addr string) (net.Conn, error) {
		deadline, ok := ctx.Deadline()
		if !ok {
			deadline = time.Now().Add(dialTimeout)
		}
		d := net.Dialer{Deadline: deadline}
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

func (p *EventPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.  Later calls to Publish fail.
func (p *EventPublisher) Close() error {
	_ = p.lock(context.Background())
	defer p.unlock()
	p.closed = true
	p.reset()
	return nil
}
