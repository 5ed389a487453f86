package testutils

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/shubham-shewale/stock-dashboard/cmd/gateway/internal/events"
	"github.com/shubham-shewale/stock-dashboard/cmd/gateway/internal/protocol"
	"github.com/shubham-shewale/stock-dashboard/pkg/ticker"
	"github.com/shubham-shewale/stock-dashboard/pkg/watchlist"
)

// MockClient simulates a connected websocket client
type MockClient struct {
	IDVal    string
	Messages []protocol.WSResponse // Stores responses as sent
	Closed   bool
	Mu       sync.Mutex
}

func NewMockClient(id string) *MockClient {
	return &MockClient{IDVal: id, Messages: make([]protocol.WSResponse, 0)}
}

func (m *MockClient) ID() string { return m.IDVal }

func (m *MockClient) Close() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
}

func (m *MockClient) SendJSON(v interface{}) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if resp, ok := v.(protocol.WSResponse); ok {
		m.Messages = append(m.Messages, resp)
	}
}

func (m *MockClient) LastMsg() protocol.WSResponse {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if len(m.Messages) == 0 {
		return protocol.WSResponse{}
	}
	return m.Messages[len(m.Messages)-1]
}

func (m *MockClient) LastMsgType() string {
	return m.LastMsg().Type
}

// LastWatchlist returns the most recent watchlist push.
func (m *MockClient) LastWatchlist() (watchlist.Snapshot, bool) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	for i := len(m.Messages) - 1; i >= 0; i-- {
		if snap, ok := m.Messages[i].Data.(watchlist.Snapshot); ok {
			return snap, true
		}
	}
	return watchlist.Snapshot{}, false
}

// LastTicker returns the most recent ticker push.
func (m *MockClient) LastTicker() (ticker.Snapshot, bool) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	for i := len(m.Messages) - 1; i >= 0; i-- {
		if snap, ok := m.Messages[i].Data.(ticker.Snapshot); ok {
			return snap, true
		}
	}
	return ticker.Snapshot{}, false
}

func (m *MockClient) CountType(typ string) int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	n := 0
	for _, msg := range m.Messages {
		if msg.Type == typ {
			n++
		}
	}
	return n
}

// MockSink records published events
type MockSink struct {
	Events []events.Event
	Mu     sync.Mutex
}

func (m *MockSink) Publish(e events.Event) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Events = append(m.Events, e)
}

func (m *MockSink) Kinds() []string {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	kinds := make([]string, len(m.Events))
	for i, e := range m.Events {
		kinds[i] = e.Kind
	}
	return kinds
}

type MockKafkaWriter struct {
	Messages   []kafka.Message
	Mu         sync.Mutex
	ShouldFail bool
	Closed     bool
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.ShouldFail {
		return errors.New("kafka error")
	}
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockKafkaWriter) Close() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
	return nil
}

// Decoded returns the written events in order.
func (m *MockKafkaWriter) Decoded(t *testing.T) []events.Event {
	t.Helper()
	m.Mu.Lock()
	defer m.Mu.Unlock()

	out := make([]events.Event, 0, len(m.Messages))
	for _, msg := range m.Messages {
		var e events.Event
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			t.Fatalf("invalid event payload: %v", err)
		}
		out = append(out, e)
	}
	return out
}

func (m *MockKafkaWriter) Len() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Messages)
}

type MockClock struct {
	CurrentTime time.Time
	Slept       time.Duration
}

func (m *MockClock) Now() time.Time { return m.CurrentTime }
func (m *MockClock) Sleep(d time.Duration) {
	m.CurrentTime = m.CurrentTime.Add(d)
	m.Slept += d
}

// MockKafkaConn serves partitions for a topic once it exists, unless NotReady is set.
type MockKafkaConn struct {
	Created   []kafka.TopicConfig
	Existing  bool
	NotReady  bool
	CreateErr error
}

func (m *MockKafkaConn) Controller() (kafka.Broker, error) {
	return kafka.Broker{Host: "localhost", Port: 9092}, nil
}
func (m *MockKafkaConn) Close() error { return nil }
func (m *MockKafkaConn) CreateTopics(topics ...kafka.TopicConfig) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Created = append(m.Created, topics...)
	return nil
}
func (m *MockKafkaConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if m.NotReady || (!m.Existing && len(m.Created) == 0) {
		return nil, nil
	}
	return []kafka.Partition{{ID: 0}}, nil
}

type MockKafkaDialer struct {
	ConnSpy *MockKafkaConn
	Fail    bool
	Dialed  []string
}

func (m *MockKafkaDialer) DialContext(ctx context.Context, network, address string) (events.KafkaConn, error) {
	m.Dialed = append(m.Dialed, address)
	if m.Fail {
		return nil, errors.New("connection refused")
	}
	if m.ConnSpy == nil {
		m.ConnSpy = &MockKafkaConn{}
	}
	return m.ConnSpy, nil
}
