package events

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	KindSessionOpened   = "session_opened"
	KindSessionClosed   = "session_closed"
	KindSearchChanged   = "search_changed"
	KindFavoriteToggled = "favorite_toggled"
	KindEntryRemoved    = "entry_removed"
	KindTickerToggled   = "ticker_toggled"
)

// Event records one user interaction with a dashboard session.
type Event struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`
	EntryID   string    `json:"entry_id,omitempty"`
	Term      *string   `json:"term,omitempty"`
	Running   *bool     `json:"running,omitempty"`
	At        time.Time `json:"at"`
}

// Sink receives session events. Publish must not block the caller.
type Sink interface {
	Publish(e Event)
}

// NopSink discards events; used when event export is disabled.
type NopSink struct{}

func (NopSink) Publish(Event) {}

// for deterministic testing
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type RealClock struct{}

func (RealClock) Now() time.Time        { return time.Now() }
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaDialer interface {
	DialContext(ctx context.Context, network, address string) (KafkaConn, error)
}

type KafkaConn interface {
	Controller() (kafka.Broker, error)
	Close() error
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
}

// RealKafkaConn adapts a *kafka.Conn to our interface
type RealKafkaConn struct{ *kafka.Conn }

func (c *RealKafkaConn) Controller() (kafka.Broker, error) { return c.Conn.Controller() }
func (c *RealKafkaConn) Close() error                      { return c.Conn.Close() }
func (c *RealKafkaConn) CreateTopics(topics ...kafka.TopicConfig) error {
	return c.Conn.CreateTopics(topics...)
}
func (c *RealKafkaConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	return c.Conn.ReadPartitions(topics...)
}

// RealKafkaDialer adapts *kafka.Dialer
type RealKafkaDialer struct{ *kafka.Dialer }

func (d *RealKafkaDialer) DialContext(ctx context.Context, network, address string) (KafkaConn, error) {
	conn, err := d.Dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return &RealKafkaConn{Conn: conn}, nil
}
