package normalizer

import (
	"context"
	"fmt"

	"github.com/murtazox04/kelishamiz-backend/internal/infrastructure"
	"github.com/murtazox04/kelishamiz-backend/pkg/types/errs"
)

const (
	_defaultThreshold = 4 << 20 // 4 MiB
	_defaultQuality   = 85

	jpegContentType = "image/jpeg"
)

// names as reported by image.DecodeConfig
var allowedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

type Normalizer struct {
	p         infrastructure.ImageProcessor
	threshold int64
	quality   int
}

func New(p infrastructure.ImageProcessor, opts ...Option) *Normalizer {
	n := &Normalizer{
		p:         p,
		threshold: _defaultThreshold,
		quality:   _defaultQuality,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Normalize re-encodes files declared larger than the threshold as JPEG and keeps
// whichever of the two encodings is smaller. Smaller files are only checked to be
// decodable images and come back untouched.
// The returned content type always comes from the decoded header; the declared one is not trusted.
func (n *Normalizer) Normalize(ctx context.Context, data []byte, declaredSize int64, _ string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("Normalizer - Normalize: %w", err)
	}

	_, format, err := n.p.Inspect(ctx, data)
	if err != nil {
		return nil, "", fmt.Errorf("Normalizer - Normalize - n.p.Inspect: %w: %w", errs.ErrInvalidImage, err)
	}

	if !allowedFormats[format] {
		return nil, "", fmt.Errorf("Normalizer - Normalize: %w: format %s is not accepted", errs.ErrInvalidImage, format)
	}

	contentType := "image/" + format

	if declaredSize <= n.threshold {
		return data, contentType, nil
	}

	out, err := n.p.Recompress(ctx, data, n.quality)
	if err != nil {
		return nil, "", fmt.Errorf("Normalizer - Normalize - n.p.Recompress: %w: %w", errs.ErrInvalidImage, err)
	}

	if len(out) >= len(data) {
		return data, contentType, nil
	}

	return out, jpegContentType, nil
}
