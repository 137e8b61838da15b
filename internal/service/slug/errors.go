package slug

import "errors"

// Sentinel errors for the slug registry.
var (
	ErrInvalidSlug = errors.New("slug is empty after normalization")
	ErrSlugTaken   = errors.New("slug is already taken by another project")
	ErrNotFound    = errors.New("project not found")
)
