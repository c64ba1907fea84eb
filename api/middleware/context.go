package middleware

import (
	"context"

	pkgAuth "github.com/angelmondragon/petfood-backend/pkg/auth"
)

// UserIDFromContext returns the authenticated user id, or "" for anonymous
// requests.
func UserIDFromContext(ctx context.Context) string {
	p, ok := pkgAuth.PrincipalFrom(ctx)
	if !ok {
		return ""
	}
	return p.UserID.String()
}

// RoleFromContext returns the caller's role, or "".
func RoleFromContext(ctx context.Context) string {
	p, ok := pkgAuth.PrincipalFrom(ctx)
	if !ok {
		return ""
	}
	return string(p.Role)
}
