package response

type FileFailure struct {
	Name   string `json:"name" example:"scan.pdf"`
	Reason string `json:"reason" example:"invalid image"`
}

type Ingest struct {
	ListingID string        `json:"listing_id" example:"4c0a1c9e-8f0b-4c55-9a55-2b7b1d1e6f10"`
	Persisted int           `json:"persisted" example:"3"`
	Failures  []FileFailure `json:"failures"`
}
