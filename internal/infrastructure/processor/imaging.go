package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	// registers webp with image.Decode; imaging already brings jpeg, png, gif, bmp and tiff
	_ "golang.org/x/image/webp"
)

const (
	thumbWidth  = 150
	thumbHeight = 150

	watermarkMargin = 10
)

type ImageProcessor struct {
}

func New() *ImageProcessor {
	return &ImageProcessor{}
}

// Inspect reads only the image header.
func (p *ImageProcessor) Inspect(ctx context.Context, data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("ImageProcessor - Inspect - image.DecodeConfig: %w", err)
	}

	return cfg, format, nil
}

// Recompress flattens the image onto an opaque white canvas and encodes it as JPEG.
// Dimensions are preserved.
func (p *ImageProcessor) Recompress(ctx context.Context, data []byte, quality int) ([]byte, error) {
	img, err := decodeImage(data, false)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Recompress - decodeImage: %w", err)
	}

	var buf bytes.Buffer
	err = imaging.Encode(&buf, flatten(img), imaging.JPEG, imaging.JPEGQuality(quality))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Recompress - imaging.Encode: %w", err)
	}

	return buf.Bytes(), nil
}

// Thumbnail returns the encoded thumbnail and its content type.
func (p *ImageProcessor) Thumbnail(ctx context.Context, contentType string, data []byte) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("ImageProcessor - Thumbnail: %w", err)
	}

	img, err := decodeImage(data, true)
	if err != nil {
		return nil, "", fmt.Errorf("ImageProcessor - Thumbnail - decodeImage: %w", err)
	}

	thumb := imaging.Thumbnail(img, thumbWidth, thumbHeight, imaging.Lanczos)

	res, err := encodeImage(thumb, contentType)
	if err != nil {
		return nil, "", fmt.Errorf("ImageProcessor - Thumbnail - encodeImage: %w", err)
	}

	return res, ContentTypeFor(contentType), nil
}

func (p *ImageProcessor) Watermark(ctx context.Context, contentType string, data []byte, text string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ImageProcessor - Watermark: %w", err)
	}

	img, err := decodeImage(data, true)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Watermark - decodeImage: %w", err)
	}

	rgba := imaging.Clone(img)

	d := &font.Drawer{
		Dst:  rgba,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}

	bounds := rgba.Bounds()
	textWidth := d.MeasureString(text).Round()

	// small thumbnails keep the text on canvas, left-aligned
	x := bounds.Max.X - textWidth - watermarkMargin
	if x < bounds.Min.X {
		x = bounds.Min.X
	}
	d.Dot = fixed.P(x, bounds.Max.Y-watermarkMargin)

	d.DrawString(text)

	res, err := encodeImage(rgba, contentType)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Watermark - encodeImage: %w", err)
	}

	return res, nil
}

// Recompress keeps the stored pixel grid as is; derived images follow EXIF orientation.
func decodeImage(data []byte, autoOrient bool) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(autoOrient))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - decodeImage - imaging.Decode: %w", err)
	}

	return img, nil
}

// flatten always yields an opaque NRGBA canvas, so gray and paletted sources are encoded as color JPEGs.
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)

	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func encodeImage(img image.Image, contentType string) ([]byte, error) {
	var buf bytes.Buffer

	err := imaging.Encode(&buf, img, FormatFor(contentType))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - encodeImage - imaging.Encode: %w", err)
	}

	return buf.Bytes(), nil
}

// FormatFor picks the output encoding; formats imaging cannot write fall back to JPEG.
func FormatFor(contentType string) imaging.Format {
	switch contentType {
	case "image/png":
		return imaging.PNG
	case "image/gif":
		return imaging.GIF
	default:
		return imaging.JPEG
	}
}

// ContentTypeFor is the MIME type of what FormatFor produces.
func ContentTypeFor(contentType string) string {
	switch FormatFor(contentType) {
	case imaging.PNG:
		return "image/png"
	case imaging.GIF:
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
