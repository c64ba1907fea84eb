package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/angelmondragon/petfood-backend/api/responses"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
)

// RequireCronSecret admits only requests carrying "Bearer <secret>". An
// empty secret closes the route entirely.
func RequireCronSecret(secret string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if secret == "" || token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "no autorizado"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
