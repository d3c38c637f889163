package media

import (
	"strings"

	"github.com/google/uuid"
)

const thumbnailSuffix = "_thumb"

// GenerateName returns a collision-resistant stored name that keeps the
// extension of originalName, e.g. "photo.JPG" -> "<uuid>.JPG".
func GenerateName(originalName string) string {
	return uuid.New().String() + Extension(originalName)
}

// Extension returns the substring from the last dot, dot included. Names
// without a dot, or whose only dot is the first character, have no extension.
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return ""
	}
	return name[i:]
}

// ThumbnailName derives the thumbnail name from a stored name:
// "abc.png" -> "abc_thumb.png".
func ThumbnailName(storedName string) string {
	i := strings.LastIndex(storedName, ".")
	if i < 0 {
		return storedName + thumbnailSuffix
	}
	return storedName[:i] + thumbnailSuffix + storedName[i:]
}

// IsThumbnailName reports whether name was produced by ThumbnailName.
func IsThumbnailName(name string) bool {
	base := name
	if i := strings.LastIndex(name, "."); i >= 0 {
		base = name[:i]
	}
	return strings.HasSuffix(base, thumbnailSuffix)
}

// MainName is the inverse of ThumbnailName. ok is false when name is not a
// thumbnail name.
func MainName(thumbName string) (string, bool) {
	if !IsThumbnailName(thumbName) {
		return "", false
	}
	ext := ""
	base := thumbName
	if i := strings.LastIndex(thumbName, "."); i >= 0 {
		base, ext = thumbName[:i], thumbName[i:]
	}
	return strings.TrimSuffix(base, thumbnailSuffix) + ext, true
}

// OutputFormat is the encoder format implied by a stored name: its
// extension without the leading dot.
func OutputFormat(storedName string) string {
	return strings.TrimPrefix(Extension(storedName), ".")
}
