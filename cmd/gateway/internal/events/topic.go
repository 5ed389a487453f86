package events

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const readyPollInterval = 200 * time.Millisecond

var ErrTopicNotReady = errors.New("topic has no partitions yet")

// TopicSpec describes the session event topic the gateway publishes to.
type TopicSpec struct {
	Name              string
	Partitions        int
	ReplicationFactor int
	ReadyTimeout      time.Duration
}

// TopicProvisioner makes sure the event topic exists before the publisher starts writing.
type TopicProvisioner struct {
	logger *zap.Logger
	dialer KafkaDialer
	clock  Clock
}

func NewTopicProvisioner(logger *zap.Logger, dialer KafkaDialer, clock Clock) *TopicProvisioner {
	return &TopicProvisioner{
		logger: logger,
		dialer: dialer,
		clock:  clock,
	}
}

// Ensure creates spec.Name through the controller broker if it is missing and waits up to
// spec.ReadyTimeout for it to report partitions.
func (p *TopicProvisioner) Ensure(ctx context.Context, brokers []string, spec TopicSpec) error {
	conn, err := p.dialAny(ctx, brokers)
	if err != nil {
		return err
	}
	defer conn.Close()

	if p.ready(conn, spec.Name) {
		p.logger.Info("Event topic already present", zap.String("topic", spec.Name))
		return nil
	}

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("find controller: %w", err)
	}
	addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	controllerConn, err := p.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial controller %s: %w", addr, err)
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             spec.Name,
		NumPartitions:     spec.Partitions,
		ReplicationFactor: spec.ReplicationFactor,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", spec.Name, err)
	}
	p.logger.Info("Event topic requested",
		zap.String("topic", spec.Name),
		zap.Int("partitions", spec.Partitions),
		zap.Int("replication_factor", spec.ReplicationFactor),
	)

	return p.waitReady(ctx, conn, spec)
}

func (p *TopicProvisioner) dialAny(ctx context.Context, brokers []string) (KafkaConn, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no brokers configured")
	}
	var lastErr error
	for _, addr := range brokers {
		conn, err := p.dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn, nil
		}
		p.logger.Debug("Broker unreachable", zap.String("broker", addr), zap.Error(err))
		lastErr = err
	}
	return nil, fmt.Errorf("dial brokers %v: %w", brokers, lastErr)
}

func (p *TopicProvisioner) waitReady(ctx context.Context, conn KafkaConn, spec TopicSpec) error {
	deadline := p.clock.Now().Add(spec.ReadyTimeout)
	for {
		if p.ready(conn, spec.Name) {
			return nil
		}
		if !p.clock.Now().Before(deadline) {
			return fmt.Errorf("%w: %s after %s", ErrTopicNotReady, spec.Name, spec.ReadyTimeout)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		p.clock.Sleep(readyPollInterval)
	}
}

func (p *TopicProvisioner) ready(conn KafkaConn, topic string) bool {
	partitions, err := conn.ReadPartitions(topic)
	return err == nil && len(partitions) > 0
}
