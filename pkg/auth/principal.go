package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/petfood-backend/pkg/enums"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    uuid.UUID
	Email     string
	Role      enums.Role
	SessionID string
}

type principalKey struct{}

// WithPrincipal stores p on ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored on ctx.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
