package usecase

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/murtazox04/kelishamiz-backend/internal/dto"
	"github.com/murtazox04/kelishamiz-backend/internal/entity"
)

type (
	// ImageUseCase is the persistence side of listing images.
	ImageUseCase interface {
		ListingSource
		ImageSink
		ThumbnailStore
		OutboxUseCase
		CheckDraftOwner(ctx context.Context, listingID, userID uuid.UUID) error
		CheckImageOwner(ctx context.Context, imageID, userID uuid.UUID) error
		DownloadImage(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error)
		DownloadThumbnail(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error)
	}

	ThumbnailStore interface {
		DownloadImageBytes(ctx context.Context, key string) ([]byte, error)
		UploadThumbnail(ctx context.Context, data []byte, contentType string, imageID uuid.UUID) error
	}

	OutboxUseCase interface {
		ClaimPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error)
		MarkAsProcessedBatch(ctx context.Context, events []*entity.OutboxEvent) error
		IncrementRetryCountBatch(ctx context.Context, events []*entity.OutboxEvent) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		ReleaseStaleEvents(ctx context.Context, olderThan time.Duration) error
		CleanupOutbox(ctx context.Context) error
	}

	ListingSource interface {
		GetListingWithImages(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
	}

	// ImageSink writes a batch atomically: all images are visible afterwards or none are.
	ImageSink interface {
		BulkInsertImages(ctx context.Context, images []*entity.ListingImage) error
		DeleteImage(ctx context.Context, id uuid.UUID) (*entity.ListingImage, error)
	}

	ListingCache interface {
		Resolve(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
		Invalidate(ctx context.Context, id uuid.UUID)
	}

	Normalizer interface {
		Normalize(ctx context.Context, data []byte, declaredSize int64, contentType string) ([]byte, string, error)
	}

	IngestUseCase interface {
		Ingest(ctx context.Context, listingID uuid.UUID, files []dto.UploadedFile) (dto.IngestResult, error)
		RemoveImage(ctx context.Context, imageID uuid.UUID) error
	}

	ImageProcessorUseCase interface {
		Process(ctx context.Context, task dto.ThumbnailTask) ([]byte, string, error)
	}
)
