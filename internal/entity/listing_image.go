package entity

import (
	"time"

	"github.com/google/uuid"
)

type ListingImage struct {
	ID        uuid.UUID `json:"id"`
	ListingID uuid.UUID `json:"listing_id"`

	ObjectKey    string  `json:"object_key"`
	ThumbnailKey *string `json:"thumbnail_key,omitempty"`

	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
	Status       Status `json:"status"` // pending, processed

	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	// Data is the stored content; it travels to object storage, never to postgres.
	Data []byte `json:"-"`
}
