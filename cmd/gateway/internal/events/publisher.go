package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var _ Sink = (*Publisher)(nil)

// Publisher exports session events to Kafka. Publish only enqueues; Run does the writes.
type Publisher struct {
	logger *zap.Logger
	writer KafkaWriter
	clock  Clock
	queue  chan Event
}

func NewPublisher(logger *zap.Logger, writer KafkaWriter, clock Clock, bufferSize int) *Publisher {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Publisher{
		logger: logger,
		writer: writer,
		clock:  clock,
		queue:  make(chan Event, bufferSize),
	}
}

// Publish stamps e with an id and time and queues it. Events are dropped when the queue is full.
func (p *Publisher) Publish(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = p.clock.Now()
	}

	select {
	case p.queue <- e:
	default:
		p.logger.Warn("Dropping session event, queue full", zap.String("kind", e.Kind), zap.String("session_id", e.SessionID))
	}
}

// Run writes queued events until ctx is cancelled, then flushes what is left.
func (p *Publisher) Run(ctx context.Context) {
	p.logger.Info("Event publisher started")
	for {
		select {
		case e := <-p.queue:
			p.write(ctx, e)
		case <-ctx.Done():
			p.drain()
			return
		}
	}
}

func (p *Publisher) drain() {
	// ctx is already cancelled; flush with a fresh one
	ctx := context.Background()
	for {
		select {
		case e := <-p.queue:
			p.write(ctx, e)
		default:
			return
		}
	}
}

func (p *Publisher) write(ctx context.Context, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("JSON Marshal Error", zap.Error(err))
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.SessionID), // keeps a session's events ordered within a partition
		Value: payload,
	})
	if err != nil {
		p.logger.Error("Kafka Write Error", zap.Error(err), zap.String("kind", e.Kind))
		return
	}
	p.logger.Debug("Published event", zap.String("kind", e.Kind), zap.String("session_id", e.SessionID))
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
