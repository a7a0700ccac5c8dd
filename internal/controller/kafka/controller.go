package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/murtazox04/kelishamiz-backend/internal/dto"
	"github.com/murtazox04/kelishamiz-backend/internal/entity"
	"github.com/murtazox04/kelishamiz-backend/internal/infrastructure"
	kafkapc "github.com/murtazox04/kelishamiz-backend/internal/infrastructure/kafka"
	"github.com/murtazox04/kelishamiz-backend/internal/usecase"
	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
	"github.com/murtazox04/kelishamiz-backend/pkg/metrics"
	"github.com/murtazox04/kelishamiz-backend/pkg/types/errs"
	"github.com/segmentio/kafka-go"
)

const (
	_defaultCommitTimeout  = 5 * time.Second
	_defaultProcessTimeout = 30 * time.Second
	_defaultCPUTimeout     = 10 * time.Second
	_readBackoff           = time.Second

	resultOK      = "ok"
	resultFailed  = "failed"
	resultSkipped = "skipped"
)

// KafkaController turns image.ingested events into listing thumbnails.
type KafkaController struct {
	prc    usecase.ImageProcessorUseCase
	img    usecase.ThumbnailStore
	er     infrastructure.EventsReceiver
	logger logger.Interface

	commitTimeout  time.Duration
	processTimeout time.Duration
	cpuTimeout     time.Duration
	watermarkText  string
	metrics        *metrics.Metrics

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func New(
	p usecase.ImageProcessorUseCase,
	img usecase.ThumbnailStore,
	er infrastructure.EventsReceiver,
	l logger.Interface,
	opts ...Option,
) *KafkaController {
	c := &KafkaController{
		prc:            p,
		img:            img,
		er:             er,
		logger:         l,
		commitTimeout:  _defaultCommitTimeout,
		processTimeout: _defaultProcessTimeout,
		cpuTimeout:     _defaultCPUTimeout,
		workers:        runtime.NumCPU(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *KafkaController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("KafkaController - Start - controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	// канал для задач
	tasks := make(chan kafka.Message, c.workers*2)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(tasks)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(tasks)

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				// 1. читаем из кафки
				event, err := c.er.ReadEvent(c.ctx)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						continue
					}
					c.logger.Error(err, "KafkaController - Start - c.er.ReadEvent")

					// брокер недоступен: не крутимся вхолостую
					select {
					case <-time.After(_readBackoff):
					case <-c.ctx.Done():
					}

					continue
				}

				// 2. отправляем воркерам
				select {
				case tasks <- event:
				case <-c.ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

func (c *KafkaController) processImage(ctx context.Context, event kafka.Message) error {
	if t := kafkapc.EventType(event); t != "" && t != entity.EventImageIngested {
		return fmt.Errorf("KafkaController - processImage - event type %q: %w", t, errs.ErrUnknownOperation)
	}

	var payload dto.ImageIngestedPayload
	err := json.Unmarshal(event.Value, &payload)
	if err != nil {
		return fmt.Errorf("KafkaController - processImage - json.Unmarshal: %w", err)
	}

	// 1. скачиваем оригинал из S3
	data, err := c.img.DownloadImageBytes(ctx, payload.ObjectKey)
	if err != nil {
		return fmt.Errorf("KafkaController - processImage - c.img.DownloadImageBytes: %w", err)
	}

	// 2. миниатюра (+ водяной знак)
	cpuCtx, cpuCancel := context.WithTimeout(ctx, c.cpuTimeout)
	defer cpuCancel()
	thumb, contentType, err := c.prc.Process(cpuCtx, dto.ThumbnailTask{
		Data:          data,
		ContentType:   payload.ContentType,
		WatermarkText: c.watermarkText,
	})
	if err != nil {
		return fmt.Errorf("KafkaController - processImage - c.prc.Process: %w", err)
	}

	// 3. загружаем миниатюру, обновляем метаданные
	err = c.img.UploadThumbnail(ctx, thumb, contentType, payload.ID)
	if err != nil {
		return fmt.Errorf("KafkaController - processImage - c.img.UploadThumbnail: %w", err)
	}

	return nil
}

// handle reports whether the event may be committed.
func (c *KafkaController) handle(event kafka.Message) (commit bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(fmt.Errorf("panic %v", r), "KafkaController - worker - panic")
			c.observe(resultFailed)
			commit = false
		}
	}()

	processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
	defer processCancel()

	err := c.processImage(processCtx, event)
	switch {
	case err == nil:
		c.observe(resultOK)

		return true
	case errors.Is(err, errs.ErrUnknownOperation):
		// чужие события не блокируют партицию
		c.logger.Warn("skipping event at offset %d: %v", event.Offset, err)
		c.observe(resultSkipped)

		return true
	default:
		c.logger.Error(err, "KafkaController - worker - c.processImage")
		c.observe(resultFailed)

		return false
	}
}

func (c *KafkaController) worker(tasks <-chan kafka.Message) {
	defer c.wg.Done()

	// читаем канал, пока не закроется
	for event := range tasks {
		if !c.handle(event) {
			continue
		}

		// коммитим после успешной обработки
		commitCtx, commitCancel := context.WithTimeout(c.ctx, c.commitTimeout)
		err := c.er.CommitEvent(commitCtx, event)
		commitCancel()
		if err != nil {
			c.logger.Error(err, "KafkaController - worker - c.er.CommitEvent")
		}
	}
}

func (c *KafkaController) observe(result string) {
	if c.metrics != nil {
		c.metrics.Thumbnails.WithLabelValues(result).Inc()
	}
}

func (c *KafkaController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		if err := c.er.Close(); err != nil {
			c.logger.Error(err, "KafkaController - Shutdown - c.er.Close")
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("KafkaController - Shutdown: %w", ctx.Err())
	}
}
