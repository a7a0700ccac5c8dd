package validate

const (
	MaxFileSize int64 = 20 * 1024 * 1024

	MaxFilesPerUpload int = 20

	// MaxRequestBody fits a full upload plus room for the multipart framing.
	MaxRequestBody = MaxFilesPerUpload*int(MaxFileSize) + multipartOverhead

	multipartOverhead = 1 << 20

	FormField = "images"

	UserIDHeader = "X-User-ID"
)

var (
	AllowedContentTypes = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}

	AllowedExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
		".webp": true,
	}
)

// ContentType maps the legacy image/jpg alias to image/jpeg.
func ContentType(ct string) string {
	if ct == "image/jpg" {
		return "image/jpeg"
	}

	return ct
}
