package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/murtazox04/kelishamiz-backend/internal/dto"
	"github.com/murtazox04/kelishamiz-backend/internal/entity"
	"github.com/murtazox04/kelishamiz-backend/internal/usecase"
	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
	"github.com/murtazox04/kelishamiz-backend/pkg/metrics"
	"github.com/murtazox04/kelishamiz-backend/pkg/types/errs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	_defaultMaxWorkers = 8
	_defaultTimeout    = 30 * time.Second

	tracerName = "github.com/murtazox04/kelishamiz-backend/internal/usecase/ingest"
)

// Coordinator fans normalization of one upload out to a bounded set of workers,
// waits for all of them and persists the surviving images in a single write.
type Coordinator struct {
	cache      usecase.ListingCache
	normalizer usecase.Normalizer
	sink       usecase.ImageSink

	maxWorkers int
	timeout    time.Duration

	metrics *metrics.Metrics
	logger  logger.Interface
}

func New(
	cache usecase.ListingCache,
	normalizer usecase.Normalizer,
	sink usecase.ImageSink,
	l logger.Interface,
	opts ...Option,
) *Coordinator {
	c := &Coordinator{
		cache:      cache,
		normalizer: normalizer,
		sink:       sink,
		maxWorkers: _defaultMaxWorkers,
		timeout:    _defaultTimeout,
		logger:     l,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// batch collects worker output; it is read only after every worker returned.
type batch struct {
	mu       sync.Mutex
	images   []*entity.ListingImage
	failures []dto.FileFailure
}

func (b *batch) add(image *entity.ListingImage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.images = append(b.images, image)
}

func (b *batch) fail(name string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = append(b.failures, dto.FileFailure{Name: name, Reason: reason(err)})
}

// reason keeps internal call chains out of client-facing failures.
func reason(err error) string {
	switch {
	case errors.Is(err, errs.ErrInvalidImage):
		return errs.ErrInvalidImage.Error()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return err.Error()
	}
}

func (c *Coordinator) Ingest(ctx context.Context, listingID uuid.UUID, files []dto.UploadedFile) (result dto.IngestResult, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ingest.Ingest", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	span.SetAttributes(
		attribute.String("listing.id", listingID.String()),
		attribute.Int("ingest.files", len(files)),
	)

	start := time.Now()
	defer func() {
		c.observeDuration(start, err)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	result = dto.IngestResult{
		ListingID: listingID,
		Failures:  []dto.FileFailure{},
	}

	// 1. листинг из кэша, NotFound прерывает сразу
	listing, err := c.cache.Resolve(ctx, listingID)
	if err != nil {
		return result, fmt.Errorf("Coordinator - Ingest - c.cache.Resolve: %w", err)
	}

	if len(files) == 0 {
		return result, nil
	}

	// 2. нормализация с ограниченным параллелизмом
	b, err := c.normalizeAll(ctx, listing.ID, files)
	if err != nil {
		return result, fmt.Errorf("Coordinator - Ingest - c.normalizeAll: %w", err)
	}

	result.Failures = append(result.Failures, b.failures...)
	c.observeFiles(len(b.images), len(b.failures))

	if len(b.images) == 0 {
		return result, fmt.Errorf("Coordinator - Ingest: %w", errs.ErrBatchEmpty)
	}

	// 3. одна запись на весь батч
	err = c.sink.BulkInsertImages(ctx, b.images)
	if err != nil {
		return result, fmt.Errorf("Coordinator - Ingest - c.sink.BulkInsertImages: %w: %w", errs.ErrPersistence, err)
	}

	if c.metrics != nil {
		c.metrics.BatchSize.Observe(float64(len(b.images)))
	}

	// 4. следующий Resolve увидит новые изображения
	c.cache.Invalidate(ctx, listing.ID)

	result.Persisted = len(b.images)

	c.logger.Info("ingested %d of %d images into listing %s", result.Persisted, len(files), listing.ID)

	return result, nil
}

// normalizeAll returns once every file was handled, or earlier with an error when
// the call times out or ctx is cancelled. In that case the partial batch is dropped
// and the remaining workers drain in the background.
func (c *Coordinator) normalizeAll(ctx context.Context, listingID uuid.UUID, files []dto.UploadedFile) (*batch, error) {
	wctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	b := &batch{
		images: make([]*entity.ListingImage, 0, len(files)),
	}

	g := &errgroup.Group{}
	g.SetLimit(c.maxWorkers)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for _, file := range files {
			if wctx.Err() != nil {
				break
			}

			g.Go(func() error {
				c.normalizeOne(wctx, listingID, file, b)

				return nil
			})
		}

		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-wctx.Done():
	}

	// a worker may have finished just as the deadline passed; the deadline wins
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if errors.Is(wctx.Err(), context.DeadlineExceeded) {
		return nil, errs.ErrTimeout
	}

	return b, nil
}

func (c *Coordinator) normalizeOne(ctx context.Context, listingID uuid.UUID, file dto.UploadedFile, b *batch) {
	data, contentType, err := c.normalizer.Normalize(ctx, file.Data, file.Size, file.ContentType)
	if err != nil {
		c.logger.Debug(err, "Coordinator - normalizeOne - c.normalizer.Normalize")
		b.fail(file.Name, err)

		return
	}

	id := uuid.New()

	b.add(&entity.ListingImage{
		ID:           id,
		ListingID:    listingID,
		ObjectKey:    ObjectKey(listingID, id, contentType),
		OriginalName: file.Name,
		ContentType:  contentType,
		Size:         int64(len(data)),
		Status:       entity.Pending,
		CreatedAt:    time.Now(),
		Data:         data,
	})
}

// RemoveImage deletes one image and drops its listing from the cache.
func (c *Coordinator) RemoveImage(ctx context.Context, imageID uuid.UUID) error {
	image, err := c.sink.DeleteImage(ctx, imageID)
	if err != nil {
		return fmt.Errorf("Coordinator - RemoveImage - c.sink.DeleteImage: %w", err)
	}

	c.cache.Invalidate(ctx, image.ListingID)

	return nil
}

func (c *Coordinator) observeFiles(ok, failed int) {
	if c.metrics == nil {
		return
	}

	c.metrics.FilesNormalized.Add(float64(ok))
	c.metrics.FilesFailed.Add(float64(failed))
}

func (c *Coordinator) observeDuration(start time.Time, err error) {
	if c.metrics == nil {
		return
	}

	c.metrics.IngestDuration.WithLabelValues(resultLabel(err)).Observe(time.Since(start).Seconds())
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errs.ErrRecordNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrBatchEmpty):
		return "batch_empty"
	case errors.Is(err, errs.ErrTimeout):
		return "timeout"
	case errors.Is(err, errs.ErrPersistence):
		return "persistence"
	default:
		return "error"
	}
}
