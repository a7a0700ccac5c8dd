package repo

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/murtazox04/kelishamiz-backend/internal/entity"
)

type (
	ImageObjectRepo interface {
		UploadBytes(ctx context.Context, key string, data []byte, contentType string) error
		Download(ctx context.Context, key string) (io.ReadCloser, string, error)
		DownloadBytes(ctx context.Context, key string) ([]byte, error)
		Delete(ctx context.Context, key string) error
	}

	ListingRepo interface {
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
	}

	ListingImageRepo interface {
		CreateBatch(ctx context.Context, images []*entity.ListingImage) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.ListingImage, error)
		GetByListingID(ctx context.Context, listingID uuid.UUID) ([]entity.ListingImage, error)
		GetThumbnailKeyByID(ctx context.Context, id uuid.UUID) (string, error)
		Update(ctx context.Context, image *entity.ListingImage) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	OutboxRepo interface {
		CreateBatch(ctx context.Context, events []*entity.OutboxEvent) error
		GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error)
		MarkAsProcessingBatch(ctx context.Context, IDs uuid.UUIDs) error
		MarkAsProcessedBatch(ctx context.Context, IDs uuid.UUIDs) error
		IncrementRetryCountBatch(ctx context.Context, IDs uuid.UUIDs) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		ReleaseStaleProcessing(ctx context.Context, olderThan time.Duration) (int64, error)
		DeleteOldProcessedAndFailed(ctx context.Context) (int64, error)
	}

	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}

	// ListingSnapshotStore backs the listing cache. Get reports a miss with ok == false.
	ListingSnapshotStore interface {
		Get(ctx context.Context, id uuid.UUID) (snapshot entity.ListingSnapshot, ok bool, err error)
		Set(ctx context.Context, snapshot entity.ListingSnapshot) error
		Delete(ctx context.Context, id uuid.UUID) error
	}
)
