// Package slug validates and reserves the human-readable publish slugs
// that identify tenant sites. Slugs are globally unique across all
// projects; reserving a slug and publishing a site are deliberately
// independent operations, so a project can hold a slug before going live.
package slug
