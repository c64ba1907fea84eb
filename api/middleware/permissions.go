package middleware

import (
	"net/http"

	"github.com/angelmondragon/petfood-backend/api/responses"
	pkgAuth "github.com/angelmondragon/petfood-backend/pkg/auth"
	"github.com/angelmondragon/petfood-backend/pkg/authz"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
)

// RequirePermission rejects callers whose role lacks perm. It must run after Auth.
func RequirePermission(checker authz.Checker, perm enums.Permission, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := pkgAuth.PrincipalFrom(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "token requerido"))
				return
			}
			decision := checker.Can(principal.Role, perm)
			if !decision.Allowed {
				err := pkgerrors.New(pkgerrors.CodeForbidden, "no tienes permiso para realizar esta acción").
					WithDetails(map[string]string{"permission": string(perm), "reason": string(decision.Reason)})
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
