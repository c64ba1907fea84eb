package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
)

// ParseQueryInt reads an integer query parameter, falling back to def when it
// is absent and rejecting values outside [lo, hi].
func ParseQueryInt(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "el parámetro debe ser numérico").
			WithDetails(map[string]any{"parametro": key})
	}
	if n < lo || n > hi {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "parámetro fuera de rango").
			WithDetails(map[string]any{"parametro": key, "min": lo, "max": hi})
	}
	return n, nil
}

// QueryString returns the trimmed, length-capped value of key.
func QueryString(r *http.Request, key string, maxLen int) string {
	return SanitizeString(r.URL.Query().Get(key), maxLen)
}
