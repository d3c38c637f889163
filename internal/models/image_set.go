package models

import "github.com/google/uuid"

// ProductImageSet is the ordered image collection owned by one product.
// Slice order is display order.
type ProductImageSet []*ProductImage

// Principal returns the first image flagged principal, falling back to the
// first image. Several images may carry the flag at once; the first wins.
func (s ProductImageSet) Principal() *ProductImage {
	for _, img := range s {
		if img.IsPrincipal {
			return img
		}
	}
	if len(s) > 0 {
		return s[0]
	}
	return nil
}

// AddUploaded appends an image produced by the ingestion pipeline.
func (s *ProductImageSet) AddUploaded(img *ProductImage) {
	img.Position = s.nextPosition()
	*s = append(*s, img)
}

// AddByURL appends an image that only references an external URL.
func (s *ProductImageSet) AddByURL(url string, principal bool) *ProductImage {
	img := &ProductImage{
		SourceURL:   url,
		IsPrincipal: principal,
		Position:    s.nextPosition(),
	}
	*s = append(*s, img)
	return img
}

// Find returns the image with id, or nil.
func (s ProductImageSet) Find(id uuid.UUID) *ProductImage {
	for _, img := range s {
		if img.ID == id {
			return img
		}
	}
	return nil
}

// Remove drops the image with id and returns it so the caller can purge its
// files once the removal has been persisted.
func (s *ProductImageSet) Remove(id uuid.UUID) (*ProductImage, error) {
	for i, img := range *s {
		if img.ID == id {
			*s = append((*s)[:i:i], (*s)[i+1:]...)
			return img, nil
		}
	}
	return nil, ErrImageNotFound
}

// SetPrincipal flags the image with id as principal and clears the flag on
// every other image. The set is left untouched when id is unknown.
func (s ProductImageSet) SetPrincipal(id uuid.UUID) error {
	if s.Find(id) == nil {
		return ErrImageNotFound
	}
	for _, img := range s {
		img.IsPrincipal = img.ID == id
	}
	return nil
}

// StoredNames lists the stored names of uploaded images, in order.
func (s ProductImageSet) StoredNames() []string {
	var names []string
	for _, img := range s {
		if img.StoredName != "" {
			names = append(names, img.StoredName)
		}
	}
	return names
}

func (s ProductImageSet) nextPosition() int {
	next := 0
	for _, img := range s {
		if img.Position >= next {
			next = img.Position + 1
		}
	}
	return next
}
