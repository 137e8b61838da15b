package api

import (
	"context"

	"github.com/ignite/gowebsite/internal/auth"
	"github.com/ignite/gowebsite/internal/domain"
	"github.com/ignite/gowebsite/internal/service/publication"
)

// identityContextKey is the key for storing the request identity
type identityContextKey struct{}

// Identity is the authenticated caller as seen by handlers.
type Identity struct {
	UserID string
	Email  string
	Role   domain.Role
}

func withIdentity(ctx context.Context, s *auth.Session) context.Context {
	return context.WithValue(ctx, identityContextKey{}, Identity{
		UserID: s.UserID,
		Email:  s.Email,
		Role:   s.Role,
	})
}

// identityFrom extracts the caller from the request context. ok is false
// for unauthenticated requests (dev mode with no session).
func identityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

func (id Identity) actor() publication.Actor {
	return publication.Actor{UserID: id.UserID, Role: id.Role}
}
