package persistent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/murtazox04/kelishamiz-backend/pkg/s3client"
	"github.com/murtazox04/kelishamiz-backend/pkg/types/errs"
)

type ImageObjectRepo struct {
	*s3client.S3Client
}

func NewImageObjectRepo(s3c *s3client.S3Client) *ImageObjectRepo {
	return &ImageObjectRepo{s3c}
}

func (r *ImageObjectRepo) UploadBytes(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("ImageObjectRepo - UploadBytes - r.Client.PutObject: %w", err)
	}

	return nil
}

// Download returns the object body and its stored content type.
func (r *ImageObjectRepo) Download(ctx context.Context, key string) (io.ReadCloser, string, error) {
	result, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, "", fmt.Errorf("ImageObjectRepo - Download: %w", errs.ErrRecordNotFound)
		}
		return nil, "", fmt.Errorf("ImageObjectRepo - Download - r.Client.GetObject: %w", err)
	}

	return result.Body, aws.ToString(result.ContentType), nil
}

func (r *ImageObjectRepo) DownloadBytes(ctx context.Context, key string) ([]byte, error) {
	body, _, err := r.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("ImageObjectRepo - DownloadBytes: %w", err)
	}
	defer body.Close()

	b, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("ImageObjectRepo - DownloadBytes - io.ReadAll: %w", err)
	}

	return b, nil
}

func (r *ImageObjectRepo) Delete(ctx context.Context, key string) error {
	_, err := r.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("ImageObjectRepo - Delete - r.Client.DeleteObject: %w", err)
	}

	return nil
}
