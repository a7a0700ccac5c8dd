package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/murtazox04/kelishamiz-backend/internal/entity"
	"github.com/murtazox04/kelishamiz-backend/pkg/postgres"
	"github.com/murtazox04/kelishamiz-backend/pkg/types/errs"
)

const (
	// Table
	imagesTable = "classified_images"

	// Columns
	idColumn           = "id"
	listingIDColumn    = "classified_id"
	objectKeyColumn    = "object_key"
	thumbnailKeyColumn = "thumbnail_key"
	originalNameColumn = "original_name"
	contentTypeColumn  = "content_type"
	sizeColumn         = "size"
	statusColumn       = "status"
	createdAtColumn    = "created_at"
	processedAtColumn  = "processed_at"
)

var imageColumns = []string{
	idColumn,
	listingIDColumn,
	objectKeyColumn,
	thumbnailKeyColumn,
	originalNameColumn,
	contentTypeColumn,
	sizeColumn,
	statusColumn,
	createdAtColumn,
	processedAtColumn,
}

type ListingImageRepo struct {
	*postgres.Postgres
}

func NewListingImageRepo(pg *postgres.Postgres) *ListingImageRepo {
	return &ListingImageRepo{pg}
}

// CreateBatch inserts all rows with one statement.
func (r *ListingImageRepo) CreateBatch(ctx context.Context, images []*entity.ListingImage) error {
	if len(images) == 0 {
		return nil
	}

	builder := r.Builder.
		Insert(imagesTable).
		Columns(
			idColumn,
			listingIDColumn,
			objectKeyColumn,
			originalNameColumn,
			contentTypeColumn,
			sizeColumn,
			statusColumn,
			createdAtColumn,
		)

	for _, image := range images {
		builder = builder.Values(
			image.ID,
			image.ListingID,
			image.ObjectKey,
			image.OriginalName,
			image.ContentType,
			image.Size,
			image.Status,
			image.CreatedAt,
		)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("ListingImageRepo - CreateBatch - builder.ToSql: %w", err)
	}

	// Pool / Tx
	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ListingImageRepo - CreateBatch - executor.Exec: %w", err)
	}

	if tag.RowsAffected() != int64(len(images)) {
		return fmt.Errorf("ListingImageRepo - CreateBatch: inserted %d of %d rows", tag.RowsAffected(), len(images))
	}

	return nil
}

func (r *ListingImageRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ListingImage, error) {
	sql, args, err := r.Builder.
		Select(imageColumns...).
		From(imagesTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ListingImageRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	image, err := scanImage(executor.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ListingImageRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("ListingImageRepo - GetByID - executor.QueryRow: %w", err)
	}

	return image, nil
}

func (r *ListingImageRepo) GetByListingID(ctx context.Context, listingID uuid.UUID) ([]entity.ListingImage, error) {
	sql, args, err := r.Builder.
		Select(imageColumns...).
		From(imagesTable).
		Where(squirrel.Eq{listingIDColumn: listingID}).
		OrderBy(createdAtColumn + " ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ListingImageRepo - GetByListingID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ListingImageRepo - GetByListingID - executor.Query: %w", err)
	}
	defer rows.Close()

	images := make([]entity.ListingImage, 0)
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("ListingImageRepo - GetByListingID - rows.Scan: %w", err)
		}
		images = append(images, *image)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListingImageRepo - GetByListingID - rows.Err: %w", err)
	}

	return images, nil
}

func (r *ListingImageRepo) GetThumbnailKeyByID(ctx context.Context, id uuid.UUID) (string, error) {
	sql, args, err := r.Builder.
		Select(thumbnailKeyColumn).
		From(imagesTable).
		Where(squirrel.And{
			squirrel.Eq{idColumn: id},
			squirrel.Eq{statusColumn: string(entity.Processed)},
		}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("ListingImageRepo - GetThumbnailKeyByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var thumbnailKey string

	err = executor.QueryRow(ctx, sql, args...).Scan(&thumbnailKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("ListingImageRepo - GetThumbnailKeyByID: %w", errs.ErrRecordNotFound)
		}
		return "", fmt.Errorf("ListingImageRepo - GetThumbnailKeyByID - executor.QueryRow.Scan: %w", err)
	}

	return thumbnailKey, nil
}

func (r *ListingImageRepo) Update(ctx context.Context, image *entity.ListingImage) error {
	sql, args, err := r.Builder.
		Update(imagesTable).
		Set(thumbnailKeyColumn, image.ThumbnailKey).
		Set(statusColumn, image.Status).
		Set(processedAtColumn, image.ProcessedAt).
		Where(squirrel.Eq{idColumn: image.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ListingImageRepo - Update - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ListingImageRepo - Update - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ListingImageRepo - Update: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *ListingImageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.Builder.
		Delete(imagesTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ListingImageRepo - Delete - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ListingImageRepo - Delete - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ListingImageRepo - Delete: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func scanImage(row pgx.Row) (*entity.ListingImage, error) {
	var image entity.ListingImage

	err := row.Scan(
		&image.ID,
		&image.ListingID,
		&image.ObjectKey,
		&image.ThumbnailKey,
		&image.OriginalName,
		&image.ContentType,
		&image.Size,
		&image.Status,
		&image.CreatedAt,
		&image.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}

	return &image, nil
}
