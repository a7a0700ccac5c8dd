package producer

import (
	"time"

	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
	"github.com/segmentio/kafka-go"
)

type Option func(*Producer)

func ConnAttempts(attempts int) Option {
	return func(p *Producer) {
		p.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.connTimeout = timeout
	}
}

func BatchTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.batchTimeout = timeout
	}
}

// Topic is created on connect when missing. Partitions bound the consumer parallelism.
func Topic(name string, partitions, replicationFactor int) Option {
	return func(p *Producer) {
		p.topics = append(p.topics, kafka.TopicConfig{
			Topic:             name,
			NumPartitions:     partitions,
			ReplicationFactor: replicationFactor,
		})
	}
}

func Logger(l logger.Interface) Option {
	return func(p *Producer) {
		p.logger = l
	}
}
