package ingest

import (
	"fmt"

	"github.com/google/uuid"
)

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ObjectKey is the bucket key of a listing image: listings/<listing>/<image>.<ext>.
func ObjectKey(listingID, imageID uuid.UUID, contentType string) string {
	ext, ok := extensions[contentType]
	if !ok {
		return fmt.Sprintf("listings/%s/%s", listingID, imageID)
	}

	return fmt.Sprintf("listings/%s/%s.%s", listingID, imageID, ext)
}
