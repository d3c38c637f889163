package media

import "fmt"

// AllowedContentTypes maps accepted MIME types to display names.
var AllowedContentTypes = map[string]string{
	"image/jpeg": "JPEG",
	"image/png":  "PNG",
	"image/gif":  "GIF",
}

// ValidateContentType checks the caller-declared MIME type against the
// allow-list. The bytes themselves are not sniffed.
func ValidateContentType(contentType string) error {
	if contentType == "" {
		return &RejectedError{
			ContentType: contentType,
			Reason:      "content type is required; only JPEG, PNG and GIF images are accepted",
		}
	}
	if _, ok := AllowedContentTypes[contentType]; !ok {
		return &RejectedError{
			ContentType: contentType,
			Reason:      fmt.Sprintf("file type %q is not allowed; only JPEG, PNG and GIF images are accepted", contentType),
		}
	}
	return nil
}
