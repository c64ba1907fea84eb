package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/petfood-backend/api/responses"
	"github.com/angelmondragon/petfood-backend/api/validators"
	"github.com/angelmondragon/petfood-backend/internal/contact"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
)

// ContactSender delivers a contact form.
type ContactSender interface {
	Send(ctx context.Context, req contact.Request) error
}

// ContactEmail forwards the storefront contact form to the shop inbox.
func ContactEmail(svc ContactSender, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("contact"))
			return
		}
		var body contact.Request
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Send(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "mensaje enviado")
	}
}
