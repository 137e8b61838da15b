package publication

import "errors"

// Sentinel errors for publication transitions.
var (
	ErrNotFound  = errors.New("project not found")
	ErrForbidden = errors.New("actor is not allowed to perform this transition")
	ErrNoSlug    = errors.New("project has no reserved slug")
)
