package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgAuth "github.com/angelmondragon/petfood-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
)

// parseUUIDParam reads a chi path parameter as a uuid.
func parseUUIDParam(r *http.Request, name, label string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, label+" requerido")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, label+" inválido")
	}
	return id, nil
}

func requirePrincipal(r *http.Request) (pkgAuth.Principal, error) {
	p, ok := pkgAuth.PrincipalFrom(r.Context())
	if !ok || p.UserID == uuid.Nil {
		return pkgAuth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "autenticación requerida")
	}
	return p, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}
