package models

import "errors"

// Common errors
var (
	ErrInvalidRecord       = errors.New("raw record is not a field map")
	ErrCategoryMismatch    = errors.New("product belongs to a different category")
	ErrUnsupportedCategory = errors.New("product category is not supported")
	ErrSourceNotFound      = errors.New("source not found")
	ErrMalformedDocument   = errors.New("document must be an object or a list of objects")
	ErrNoEmbedder          = errors.New("no embedding function configured")
)
