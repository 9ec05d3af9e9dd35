package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/bookstore-api/internal/metrics"
)

const (
	// publishBuffer is how many events Record queues before dropping.
	publishBuffer = 1024
	dialTimeout   = 2 * time.Second
	publishWait   = 3 * time.Second
)

// Publisher sends ActivityEvents to ActivityQueueName. Record only queues
// the event; Run drains the queue on its own goroutine, keeping one
// connection and channel open and redialing lazily after a failure. Errors
// are logged and never surfaced to the request that produced the event.
type Publisher struct {
	url    string
	log    *slog.Logger
	events chan ActivityEvent

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{url: url, log: log, events: make(chan ActivityEvent, publishBuffer)}
}

// Record queues one event and returns at once. When the queue is full the
// event is dropped. It satisfies service.ActivityRecorder.
func (p *Publisher) Record(_ context.Context, userID, action string, metadata map[string]any) {
	ev := ActivityEvent{
		ID:         uuid.NewString(),
		UserID:     userID,
		Action:     action,
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	}
	select {
	case p.events <- ev:
	default:
		metrics.ActivityEventsTotal.WithLabelValues("amqp", "dropped").Inc()
		p.log.Warn("rabbitmq: activity queue full, event dropped", "action", action)
	}
}

// Run publishes queued events until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-p.events:
			pctx, cancel := context.WithTimeout(ctx, publishWait)
			err := p.Publish(pctx, ev)
			cancel()
			metrics.ActivityEventsTotal.WithLabelValues("amqp", metrics.Result(err)).Inc()
			if err != nil {
				p.log.Warn("rabbitmq: publish activity failed", "action", ev.Action, "error", err)
			}
		}
	}
}

// Publish sends ev as a persistent JSON message on the default exchange.
func (p *Publisher) Publish(ctx context.Context, ev ActivityEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    ev.ID,
		Timestamp:    ev.OccurredAt,
		Type:         ev.Action,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx, "", ActivityQueueName, false, false, pub); err != nil {
		p.reset()
		return err
	}
	return nil
}

// channel returns the open channel, dialing when necessary. p.mu is held.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := declareActivityQueue(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}

// declareActivityQueue is idempotent. Durable so messages survive broker
// restarts.
func declareActivityQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		ActivityQueueName, // name
		true,              // durable
		false,             // autoDelete
		false,             // exclusive
		false,             // noWait
		nil,               // args
	)
	return err
}
