package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAndFirst(t *testing.T) {
	t.Setenv("PETFOOD_TEST_BLANK", "   ")
	t.Setenv("PETFOOD_TEST_PORT", " 9090 ")

	assert.Equal(t, "9090", Get("PETFOOD_TEST_PORT", "8080"))
	assert.Equal(t, "8080", Get("PETFOOD_TEST_BLANK", "8080"))
	assert.Equal(t, "9090", First("x", "PETFOOD_TEST_MISSING", "PETFOOD_TEST_BLANK", "PETFOOD_TEST_PORT"))
	assert.Equal(t, "x", First("x"))
}
