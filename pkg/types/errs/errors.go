package errs

import "errors"

var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrUnknownOperation = errors.New("unknown operation")

	// ingestion
	ErrInvalidImage = errors.New("invalid image")
	ErrBatchEmpty   = errors.New("no usable files in batch")
	ErrPersistence  = errors.New("persistence failure")
	ErrTimeout      = errors.New("ingestion timed out")

	// access
	ErrForbidden       = errors.New("forbidden")
	ErrListingNotDraft = errors.New("listing is not a draft")
)
