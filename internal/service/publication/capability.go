package publication

import "github.com/ignite/gowebsite/internal/domain"

// Transition names a lifecycle mutation for capability checks.
type Transition int

const (
	TransitionPublish Transition = iota
	TransitionUnpublish
	TransitionChangeSlug
)

// Actor is the authenticated identity attempting a transition.
type Actor struct {
	UserID string
	Role   domain.Role
}

// Can is the single place the per-transition authorization policy lives:
// publish is owner-or-admin, unpublish is admin-only (ownership is not
// sufficient), slug changes are owner-only. Endpoints must not re-derive
// this ad hoc.
func Can(a Actor, ownerID string, t Transition) bool {
	switch t {
	case TransitionPublish:
		return a.UserID == ownerID || a.Role == domain.RoleAdmin
	case TransitionUnpublish:
		return a.Role == domain.RoleAdmin
	case TransitionChangeSlug:
		return a.UserID == ownerID
	default:
		return false
	}
}
