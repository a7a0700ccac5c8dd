package infrastructure

import (
	"context"
	"image"

	"github.com/murtazox04/kelishamiz-backend/internal/entity"
	"github.com/segmentio/kafka-go"
)

type (
	EventsSender interface {
		SendEvents(ctx context.Context, events []*entity.OutboxEvent) error
		Close() error
	}

	EventsReceiver interface {
		ReadEvent(ctx context.Context) (kafka.Message, error)
		CommitEvent(ctx context.Context, event kafka.Message) error
		Close() error
	}

	ImageProcessor interface {
		Inspect(ctx context.Context, data []byte) (image.Config, string, error)
		Recompress(ctx context.Context, data []byte, quality int) ([]byte, error)
		Thumbnail(ctx context.Context, contentType string, data []byte) ([]byte, string, error)
		Watermark(ctx context.Context, contentType string, data []byte, text string) ([]byte, error)
	}
)
