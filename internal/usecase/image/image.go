package image

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/murtazox04/kelishamiz-backend/internal/entity"
	"github.com/murtazox04/kelishamiz-backend/internal/repo"
	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
	"github.com/murtazox04/kelishamiz-backend/pkg/types/errs"
	"golang.org/x/sync/errgroup"
)

const _defaultUploadConcurrency = 4

type ImageUseCase struct {
	objectRepo  repo.ImageObjectRepo
	listingRepo repo.ListingRepo
	imageRepo   repo.ListingImageRepo
	outboxRepo  repo.OutboxRepo
	transactor  repo.Transactor

	uploadConcurrency int

	logger logger.Interface
}

func New(
	objectRepo repo.ImageObjectRepo,
	listingRepo repo.ListingRepo,
	imageRepo repo.ListingImageRepo,
	outboxRepo repo.OutboxRepo,
	transactor repo.Transactor,
	l logger.Interface,
) *ImageUseCase {
	return &ImageUseCase{
		objectRepo:        objectRepo,
		listingRepo:       listingRepo,
		imageRepo:         imageRepo,
		outboxRepo:        outboxRepo,
		transactor:        transactor,
		uploadConcurrency: _defaultUploadConcurrency,
		logger:            l,
	}
}

func (uc *ImageUseCase) GetListingWithImages(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	listing, err := uc.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - GetListingWithImages - uc.listingRepo.GetByID: %w", err)
	}

	images, err := uc.imageRepo.GetByListingID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - GetListingWithImages - uc.imageRepo.GetByListingID: %w", err)
	}
	listing.Images = images

	return listing, nil
}

// CheckDraftOwner allows image uploads only to the owner's draft listings.
func (uc *ImageUseCase) CheckDraftOwner(ctx context.Context, listingID, userID uuid.UUID) error {
	listing, err := uc.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return fmt.Errorf("ImageUseCase - CheckDraftOwner - uc.listingRepo.GetByID: %w", err)
	}

	if listing.OwnerID != userID {
		return fmt.Errorf("ImageUseCase - CheckDraftOwner: %w", errs.ErrForbidden)
	}

	if !listing.IsDraft() {
		return fmt.Errorf("ImageUseCase - CheckDraftOwner: %w", errs.ErrListingNotDraft)
	}

	return nil
}

// CheckImageOwner allows changes to an image only to the owner of its listing, whatever the listing status.
func (uc *ImageUseCase) CheckImageOwner(ctx context.Context, imageID, userID uuid.UUID) error {
	image, err := uc.imageRepo.GetByID(ctx, imageID)
	if err != nil {
		return fmt.Errorf("ImageUseCase - CheckImageOwner - uc.imageRepo.GetByID: %w", err)
	}

	listing, err := uc.listingRepo.GetByID(ctx, image.ListingID)
	if err != nil {
		return fmt.Errorf("ImageUseCase - CheckImageOwner - uc.listingRepo.GetByID: %w", err)
	}

	if listing.OwnerID != userID {
		return fmt.Errorf("ImageUseCase - CheckImageOwner: %w", errs.ErrForbidden)
	}

	return nil
}

// BulkInsertImages stores every object, then writes all rows and their outbox
// events in one transaction. On any failure the uploaded objects are removed.
func (uc *ImageUseCase) BulkInsertImages(ctx context.Context, images []*entity.ListingImage) error {
	if len(images) == 0 {
		return nil
	}

	// 1. загружаем объекты в S3
	uploaded, err := uc.uploadObjects(ctx, images)
	if err != nil {
		uc.deleteObjects(ctx, uploaded)

		return fmt.Errorf("ImageUseCase - BulkInsertImages - uc.uploadObjects: %w", err)
	}

	// 2. в единой транзакции: строки изображений + события аутбокса
	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.imageRepo.CreateBatch(ctx, images); err != nil {
			return fmt.Errorf("ImageUseCase - BulkInsertImages - uc.imageRepo.CreateBatch: %w", err)
		}

		events, err := uc.createOutboxEvents(images)
		if err != nil {
			return fmt.Errorf("ImageUseCase - BulkInsertImages - uc.createOutboxEvents: %w", err)
		}

		if err := uc.outboxRepo.CreateBatch(ctx, events); err != nil {
			return fmt.Errorf("ImageUseCase - BulkInsertImages - uc.outboxRepo.CreateBatch: %w", err)
		}

		return nil
	})
	if err != nil {
		uc.deleteObjects(ctx, uploaded)

		return fmt.Errorf("ImageUseCase - BulkInsertImages - uc.transactor.WithinTransaction: %w", err)
	}

	return nil
}

func (uc *ImageUseCase) uploadObjects(ctx context.Context, images []*entity.ListingImage) ([]string, error) {
	var (
		mu       sync.Mutex
		uploaded = make([]string, 0, len(images))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.uploadConcurrency)

	for _, image := range images {
		g.Go(func() error {
			err := uc.objectRepo.UploadBytes(gctx, image.ObjectKey, image.Data, image.ContentType)
			if err != nil {
				return fmt.Errorf("uc.objectRepo.UploadBytes key=%s: %w", image.ObjectKey, err)
			}

			mu.Lock()
			uploaded = append(uploaded, image.ObjectKey)
			mu.Unlock()

			return nil
		})
	}

	err := g.Wait()

	return uploaded, err
}

// deleteObjects is compensation; it runs even when ctx is already cancelled.
func (uc *ImageUseCase) deleteObjects(ctx context.Context, keys []string) {
	ctx = context.WithoutCancel(ctx)

	for _, key := range keys {
		if err := uc.objectRepo.Delete(ctx, key); err != nil {
			uc.logger.Error(err, "ImageUseCase - deleteObjects - uc.objectRepo.Delete")
		}
	}
}

func (uc *ImageUseCase) UploadThumbnail(ctx context.Context, data []byte, contentType string, imageID uuid.UUID) error {
	// 1. получим текущие метаданные, чтобы не затереть лишнее
	image, err := uc.imageRepo.GetByID(ctx, imageID)
	if err != nil {
		return fmt.Errorf("ImageUseCase - UploadThumbnail - uc.imageRepo.GetByID: %w", err)
	}

	// 2. генерируем ключ и сохраняем в S3
	thumbnailKey := fmt.Sprintf("thumbnails/%s", imageID)
	err = uc.objectRepo.UploadBytes(ctx, thumbnailKey, data, contentType)
	if err != nil {
		return fmt.Errorf("ImageUseCase - UploadThumbnail - uc.objectRepo.UploadBytes: %w", err)
	}

	// 3. модифицируем сущность
	image.ThumbnailKey = &thumbnailKey
	image.Status = entity.Processed
	now := time.Now()
	image.ProcessedAt = &now

	// 4. обновляем метаданные
	err = uc.imageRepo.Update(ctx, image)
	if err != nil {
		uc.deleteObjects(ctx, []string{thumbnailKey})

		return fmt.Errorf("ImageUseCase - UploadThumbnail - uc.imageRepo.Update: %w", err)
	}

	return nil
}

func (uc *ImageUseCase) DownloadImage(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error) {
	image, err := uc.imageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("ImageUseCase - DownloadImage - uc.imageRepo.GetByID: %w", err)
	}

	body, _, err := uc.objectRepo.Download(ctx, image.ObjectKey)
	if err != nil {
		return nil, "", fmt.Errorf("ImageUseCase - DownloadImage - uc.objectRepo.Download: %w", err)
	}

	return body, image.ContentType, nil
}

func (uc *ImageUseCase) DownloadThumbnail(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error) {
	key, err := uc.imageRepo.GetThumbnailKeyByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("ImageUseCase - DownloadThumbnail - uc.imageRepo.GetThumbnailKeyByID: %w", err)
	}

	body, contentType, err := uc.objectRepo.Download(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("ImageUseCase - DownloadThumbnail - uc.objectRepo.Download: %w", err)
	}

	return body, contentType, nil
}

func (uc *ImageUseCase) DownloadImageBytes(ctx context.Context, key string) ([]byte, error) {
	b, err := uc.objectRepo.DownloadBytes(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - DownloadImageBytes - uc.objectRepo.DownloadBytes: %w", err)
	}

	return b, nil
}

// DeleteImage removes the row (outbox rows go with it by cascade), then the objects best-effort.
func (uc *ImageUseCase) DeleteImage(ctx context.Context, id uuid.UUID) (*entity.ListingImage, error) {
	image, err := uc.imageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - DeleteImage - uc.imageRepo.GetByID: %w", err)
	}

	err = uc.imageRepo.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - DeleteImage - uc.imageRepo.Delete: %w", err)
	}

	keys := []string{image.ObjectKey}
	if image.ThumbnailKey != nil {
		keys = append(keys, *image.ThumbnailKey)
	}

	for _, key := range keys {
		if err := uc.objectRepo.Delete(ctx, key); err != nil {
			uc.logger.Warn("failed to delete key=%s, error=%v", key, err)
		}
	}

	return image, nil
}
