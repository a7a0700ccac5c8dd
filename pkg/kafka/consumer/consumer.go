package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
	"github.com/murtazox04/kelishamiz-backend/pkg/retry"
	"github.com/segmentio/kafka-go"
)

const (
	_defaultConnAttempts = 10
	_defaultConnTimeout  = time.Second
	_defaultMaxBytes     = 10e6
)

var errNoBrokers = errors.New("no brokers configured")

type Consumer struct {
	connAttempts int
	connTimeout  time.Duration
	startOffset  int64
	maxBytes     int
	logger       logger.Interface

	brokers []string
	groupID string
	topic   string

	Reader *kafka.Reader
}

func New(ctx context.Context, brokers []string, groupID, topic string, opts ...Option) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("Kafka Consumer - New: %w", errNoBrokers)
	}

	c := &Consumer{
		connAttempts: _defaultConnAttempts,
		connTimeout:  _defaultConnTimeout,
		startOffset:  kafka.FirstOffset,
		maxBytes:     _defaultMaxBytes,
		logger:       logger.Nop(),
		brokers:      brokers,
		groupID:      groupID,
		topic:        topic,
	}

	for _, opt := range opts {
		opt(c)
	}

	// CommitInterval 0: offsets are committed explicitly after processing.
	c.Reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:        c.brokers,
		GroupID:        c.groupID,
		Topic:          c.topic,
		MinBytes:       1,
		MaxBytes:       c.maxBytes,
		StartOffset:    c.startOffset,
		CommitInterval: 0,
	})

	// the topic is created by the producer; wait until it has partitions
	err := retry.Connect(ctx, c.logger, "Kafka Consumer", c.connAttempts, c.connTimeout, c.ping)
	if err != nil {
		_ = c.Reader.Close()

		return nil, fmt.Errorf("Kafka Consumer - New: %w", err)
	}

	return c, nil
}

func (c *Consumer) ping(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", c.brokers[0])
	if err != nil {
		return fmt.Errorf("Kafka Consumer - kafka.DialContext: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(c.topic)
	if err != nil {
		return fmt.Errorf("Kafka Consumer - conn.ReadPartitions: %w", err)
	}
	if len(partitions) == 0 {
		return fmt.Errorf("Kafka Consumer - conn.ReadPartitions: topic %s has no partitions", c.topic)
	}

	return nil
}

func (c *Consumer) Close() error {
	if c.Reader != nil {
		return c.Reader.Close()
	}

	return nil
}
