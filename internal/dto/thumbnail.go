package dto

import "github.com/google/uuid"

// ImageIngestedPayload is the JSON body of an image.ingested outbox event.
type ImageIngestedPayload struct {
	ID          uuid.UUID `json:"id"`
	ListingID   uuid.UUID `json:"listing_id"`
	ObjectKey   string    `json:"object_key"`
	ContentType string    `json:"content_type"`
}

type ThumbnailTask struct {
	Data          []byte
	ContentType   string
	WatermarkText string
}
