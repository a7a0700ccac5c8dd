package dto

import "github.com/google/uuid"

// UploadedFile is one multipart file, read fully into memory by the controller.
type UploadedFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

type FileFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type IngestResult struct {
	ListingID uuid.UUID     `json:"listing_id"`
	Persisted int           `json:"persisted"`
	Failures  []FileFailure `json:"failures"`
}
