package products

import "errors"

var (
	ErrNotFound      = errors.New("product not found")
	ErrNoSKUs        = errors.New("product has no skus")
	ErrDuplicateSlug = errors.New("duplicate product slug")
)
