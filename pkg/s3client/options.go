package s3client

import (
	"time"

	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
)

type Option func(c *S3Client)

func ConnAttempts(attempts int) Option {
	return func(c *S3Client) {
		c.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(c *S3Client) {
		c.connTimeout = timeout
	}
}

func Region(region string) Option {
	return func(c *S3Client) {
		c.region = region
	}
}

func UsePathStyle(use bool) Option {
	return func(c *S3Client) {
		c.usePathStyle = use
	}
}

// CreateBucket creates the bucket on first connect when it does not exist.
func CreateBucket(create bool) Option {
	return func(c *S3Client) {
		c.createBucket = create
	}
}

func Logger(l logger.Interface) Option {
	return func(c *S3Client) {
		c.logger = l
	}
}
