package entity

import (
	"time"

	"github.com/google/uuid"
)

type Listing struct {
	ID        uuid.UUID     `json:"id"`
	OwnerID   uuid.UUID     `json:"owner_id"`
	Title     string        `json:"title"`
	Status    ListingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`

	Images []ListingImage `json:"images"`
}

func (l *Listing) IsDraft() bool {
	return l.Status == ListingDraft
}

// ListingSnapshot is a cached copy of a listing with the moment it was read.
type ListingSnapshot struct {
	Listing  Listing   `json:"listing"`
	CachedAt time.Time `json:"cached_at"`
}

// Fresh reports whether the snapshot is younger than window at now.
func (s ListingSnapshot) Fresh(now time.Time, window time.Duration) bool {
	return now.Sub(s.CachedAt) < window
}
