package imageprocessor

import (
	"context"
	"fmt"

	"github.com/murtazox04/kelishamiz-backend/internal/dto"
	"github.com/murtazox04/kelishamiz-backend/internal/infrastructure"
)

type ImageProcessorUseCase struct {
	p infrastructure.ImageProcessor
}

func New(p infrastructure.ImageProcessor) *ImageProcessorUseCase {
	return &ImageProcessorUseCase{p}
}

// Process builds the listing thumbnail, watermarked when the task carries text.
func (uc *ImageProcessorUseCase) Process(ctx context.Context, task dto.ThumbnailTask) ([]byte, string, error) {
	result, contentType, err := uc.p.Thumbnail(ctx, task.ContentType, task.Data)
	if err != nil {
		return nil, "", fmt.Errorf("ImageProcessorUseCase - Process - uc.p.Thumbnail: %w", err)
	}

	if task.WatermarkText == "" {
		return result, contentType, nil
	}

	result, err = uc.p.Watermark(ctx, contentType, result, task.WatermarkText)
	if err != nil {
		return nil, "", fmt.Errorf("ImageProcessorUseCase - Process - uc.p.Watermark: %w", err)
	}

	return result, contentType, nil
}
