package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductNotFound(t *testing.T) {
	err := ProductNotFound(42)

	assert.Contains(t, err.Message, "42")
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Equal(t, 3001, err.Code)
	assert.Equal(t, "product_error", err.Kind.Type())
	assert.Equal(t, "Produto #7 não encontrado", ProductNotFound(7).Message)
}

func TestAuthErrors(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, NewAuthError("").Status)
	assert.Equal(t, LoginPath, NewAuthError("").RedirectTo)

	withResource := UnauthorizedAccess("relatórios")
	assert.Equal(t, http.StatusForbidden, withResource.Status)
	assert.Contains(t, withResource.Message, "relatórios")

	generic := UnauthorizedAccess("")
	assert.Equal(t, http.StatusForbidden, generic.Status)
	assert.Equal(t, "Acesso não autorizado", generic.Message)
}

func TestErrorKindStrategy(t *testing.T) {
	cases := []struct {
		kind ErrorKind
		want RenderStrategy
	}{
		{KindAuth, RedirectToLogin},
		{KindProduct, RedirectBackWithInput},
		{KindCart, RedirectBack},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.kind.Strategy())
		})
	}
}

func TestError_IsAndAs(t *testing.T) {
	cause := errors.New("db down")
	wrapped := fmt.Errorf("cart.add: %w", CartItemNotFound(3).Wrap(cause))

	assert.True(t, errors.Is(wrapped, CartItemNotFound(99)))
	assert.False(t, errors.Is(wrapped, ProductNotFound(3)))
	assert.True(t, errors.Is(wrapped, cause))

	de, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindCart, de.Kind)
	assert.Equal(t, 2001, de.Code)

	_, ok = AsError(cause)
	assert.False(t, ok)
}
