package entity

import (
	"time"

	"github.com/google/uuid"
)

const EventImageIngested = "image.ingested"

// OutboxEvent is written in the same transaction as the image rows it announces.
type OutboxEvent struct {
	ID          uuid.UUID  `json:"id"`
	AggregateID uuid.UUID  `json:"aggregate_id"` // image id
	Type        string     `json:"type"`
	Payload     []byte     `json:"payload"`
	Status      Status     `json:"status"` // pending, processing, processed, failed
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	RetryCount  int        `json:"retry_count"`
}
