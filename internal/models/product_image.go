package models

import (
	"fmt"
	"strings"
	"time"

	"cardapio/internal/media"

	"github.com/google/uuid"
)

// PublicImagePath is the URL prefix under which stored images are served.
const PublicImagePath = "/uploads/produtos/"

// ProductImage is one image of a product: either an uploaded file stored
// under StoredName (with a derived thumbnail) or a bare external SourceURL.
type ProductImage struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ProductID   uuid.UUID `json:"product_id" db:"product_id"`
	StoredName  string    `json:"stored_name,omitempty" db:"stored_name"`
	SourceURL   string    `json:"source_url,omitempty" db:"source_url"`
	ContentType string    `json:"content_type,omitempty" db:"content_type"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	IsPrincipal bool      `json:"is_principal" db:"is_principal"`
	Position    int       `json:"position" db:"position"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// IsUploaded reports whether the image has files on disk.
func (i *ProductImage) IsUploaded() bool {
	return i.StoredName != ""
}

// Validate requires exactly one resolvable source.
func (i *ProductImage) Validate() error {
	hasFile := i.StoredName != ""
	hasURL := strings.TrimSpace(i.SourceURL) != ""
	switch {
	case hasFile && hasURL:
		return fmt.Errorf("%w: both stored name and source url are set", ErrInvalidImage)
	case !hasFile && !hasURL:
		return fmt.Errorf("%w: stored name or source url is required", ErrInvalidImage)
	}
	return nil
}

// ImageURL is the public path of the main variant, or the source URL.
func (i *ProductImage) ImageURL() string {
	if i.StoredName != "" {
		return PublicImagePath + i.StoredName
	}
	return i.SourceURL
}

// ThumbnailURL is the public path of the thumbnail variant, or the source URL
// for images without files.
func (i *ProductImage) ThumbnailURL() string {
	if i.StoredName != "" {
		return PublicImagePath + media.ThumbnailName(i.StoredName)
	}
	return i.SourceURL
}
