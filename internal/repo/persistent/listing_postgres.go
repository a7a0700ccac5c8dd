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
	listingsTable = "classifieds"

	// Columns
	listingPKColumn        = "id"
	listingOwnerIDColumn   = "owner_id"
	listingTitleColumn     = "title"
	listingStatusColumn    = "status"
	listingCreatedAtColumn = "created_at"
)

// ListingRepo reads listings owned by the classifieds module; this service never writes them.
type ListingRepo struct {
	*postgres.Postgres
}

func NewListingRepo(pg *postgres.Postgres) *ListingRepo {
	return &ListingRepo{pg}
}

func (r *ListingRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	sql, args, err := r.Builder.
		Select(
			listingPKColumn,
			listingOwnerIDColumn,
			listingTitleColumn,
			listingStatusColumn,
			listingCreatedAtColumn,
		).
		From(listingsTable).
		Where(squirrel.Eq{listingPKColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ListingRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var listing entity.Listing
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&listing.ID,
		&listing.OwnerID,
		&listing.Title,
		&listing.Status,
		&listing.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ListingRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("ListingRepo - GetByID - executor.QueryRow: %w", err)
	}

	return &listing, nil
}
