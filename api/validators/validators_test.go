package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
)

type cartBody struct {
	ProductID string `json:"id_producto" validate:"required"`
	Quantity  int    `json:"cantidad" validate:"required,gt=0"`
	Note      string `json:"nota" validate:"omitempty,max=5"`
}

func decode(t *testing.T, body string) (*cartBody, error) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/carrito", strings.NewReader(body))
	var dest cartBody
	err := DecodeJSONBody(req, &dest)
	return &dest, err
}

func TestDecodeJSONBodyValid(t *testing.T) {
	got, err := decode(t, `{"id_producto":"abc","cantidad":2,"extra":true}`)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ProductID)
	assert.Equal(t, 2, got.Quantity)
}

func TestDecodeJSONBodyFieldErrorsUseJSONNames(t *testing.T) {
	_, err := decode(t, `{"cantidad":0,"nota":"demasiado"}`)
	require.Error(t, err)

	var typed *pkgerrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "es obligatorio", details["id_producto"])
	assert.Equal(t, "es obligatorio", details["cantidad"])
	assert.Equal(t, "no puede exceder 5 caracteres", details["nota"])
}

func TestDecodeJSONBodyRejectsBadPayloads(t *testing.T) {
	for _, body := range []string{"", "{", `{"cantidad":"dos"}`} {
		_, err := decode(t, body)
		require.Error(t, err, body)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code(), body)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/pedidos?limit=30&bad=x&big=900", nil)

	n, err := ParseQueryInt(req, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	n, err = ParseQueryInt(req, "missing", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	_, err = ParseQueryInt(req, "bad", 25, 1, 100)
	assert.Error(t, err)
	_, err = ParseQueryInt(req, "big", 25, 1, 100)
	assert.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Croquetas", SanitizeString("  Croquetas \x00 ", 0))
	assert.Equal(t, "Niño", SanitizeString("Niñoooo", 4))
	assert.Equal(t, "a\nb", SanitizeString("a\nb\x07", 10))
}
