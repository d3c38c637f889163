package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description" db:"description"`
	Price       float64         `json:"price" db:"price"`
	Images      ProductImageSet `json:"images"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Validate checks the fields a product must carry before it is saved.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	return ValidatePrice(p.Price)
}

// MaxPrice is the first value that no longer fits the price column.
const MaxPrice = 1e10

// ValidatePrice accepts finite prices in [0, MaxPrice).
func ValidatePrice(price float64) error {
	switch {
	case math.IsNaN(price) || math.IsInf(price, 0):
		return fmt.Errorf("%w: price must be a finite number", ErrInvalidProduct)
	case price < 0:
		return fmt.Errorf("%w: price must be greater than or equal to zero", ErrInvalidProduct)
	case price >= MaxPrice:
		return fmt.Errorf("%w: price must be less than %.0f", ErrInvalidProduct, MaxPrice)
	}
	return nil
}

// PrincipalImage is the image shown for the product in listings, or nil.
func (p *Product) PrincipalImage() *ProductImage {
	return p.Images.Principal()
}
