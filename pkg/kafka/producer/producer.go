package producer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
	"github.com/murtazox04/kelishamiz-backend/pkg/retry"
	"github.com/segmentio/kafka-go"
)

const (
	_defaultConnAttempts = 10
	_defaultConnTimeout  = time.Second
	_defaultBatchTimeout = 50 * time.Millisecond
)

var errNoBrokers = errors.New("no brokers configured")

type Producer struct {
	connAttempts int
	connTimeout  time.Duration
	batchTimeout time.Duration
	topics       []kafka.TopicConfig
	logger       logger.Interface

	brokers []string
	Writer  *kafka.Writer
}

func New(ctx context.Context, brokers []string, opts ...Option) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("Kafka Producer - New: %w", errNoBrokers)
	}

	p := &Producer{
		connAttempts: _defaultConnAttempts,
		connTimeout:  _defaultConnTimeout,
		batchTimeout: _defaultBatchTimeout,
		logger:       logger.Nop(),
		brokers:      brokers,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Hash keeps every event of one image on the same partition.
	p.Writer = &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: p.batchTimeout,
	}

	err := retry.Connect(ctx, p.logger, "Kafka Producer", p.connAttempts, p.connTimeout, p.connect)
	if err != nil {
		return nil, fmt.Errorf("Kafka Producer - New: %w", err)
	}

	return p, nil
}

// connect checks the cluster and creates the configured topics.
// CreateTopics is a no-op for topics that already exist.
func (p *Producer) connect(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("Kafka Producer - kafka.DialContext: %w", err)
	}
	defer conn.Close()

	if len(p.topics) == 0 {
		_, err = conn.Brokers()
		if err != nil {
			return fmt.Errorf("Kafka Producer - conn.Brokers: %w", err)
		}

		return nil
	}

	// topics can only be created through the controller broker
	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("Kafka Producer - conn.Controller: %w", err)
	}

	ctrlConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("Kafka Producer - kafka.DialContext controller: %w", err)
	}
	defer ctrlConn.Close()

	err = ctrlConn.CreateTopics(p.topics...)
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("Kafka Producer - ctrlConn.CreateTopics: %w", err)
	}

	return nil
}

func (p *Producer) Close() error {
	if p.Writer != nil {
		return p.Writer.Close()
	}

	return nil
}
