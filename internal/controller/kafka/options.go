package kafka

import (
	"time"

	"github.com/murtazox04/kelishamiz-backend/pkg/metrics"
)

type Option func(*KafkaController)

// Workers is the number of concurrent thumbnail jobs.
func Workers(n int) Option {
	return func(c *KafkaController) {
		if n > 0 {
			c.workers = n
		}
	}
}

func CommitTimeout(d time.Duration) Option {
	return func(c *KafkaController) {
		c.commitTimeout = d
	}
}

// ProcessTimeout bounds one event: download, thumbnail, upload.
func ProcessTimeout(d time.Duration) Option {
	return func(c *KafkaController) {
		c.processTimeout = d
	}
}

// CPUTimeout bounds the decode-resize-encode step alone.
func CPUTimeout(d time.Duration) Option {
	return func(c *KafkaController) {
		c.cpuTimeout = d
	}
}

// Watermark draws text on every thumbnail; empty disables it.
func Watermark(text string) Option {
	return func(c *KafkaController) {
		c.watermarkText = text
	}
}

func Metrics(m *metrics.Metrics) Option {
	return func(c *KafkaController) {
		c.metrics = m
	}
}
