package models

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrImageNotFound   = errors.New("image not found")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrInvalidImage    = errors.New("invalid image")
)
