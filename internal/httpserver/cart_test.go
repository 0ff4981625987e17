package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lojavirtual/internal/domain"
)

func TestAddCartItem_JSON(t *testing.T) {
	deps := testDeps()
	cart := deps.CartSvc.(*stubCartService)
	limiter := deps.Limiter.(*stubLimiter)
	router := newTestRouter(t, deps)

	rec := serve(router, jsonRequest(http.MethodPost, "/cart/items", `{"product_id":3,"quantity":"2"}`, customerToken))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, cart.adds, 1)
	assert.Equal(t, addCall{userID: 7, productID: 3, quantity: 2}, cart.adds[0])
	assert.Equal(t, []string{"cart:user:7"}, limiter.keys)
	assert.Contains(t, rec.Body.String(), `"message":"Produto adicionado ao carrinho"`)
}

func TestAddCartItem_Form(t *testing.T) {
	deps := testDeps()
	cart := deps.CartSvc.(*stubCartService)
	router := newTestRouter(t, deps)

	form := url.Values{"product_id": {"3"}, "quantity": {"4"}}
	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: customerToken})
	req.Header.Set("Referer", "/produtos/3")
	rec := serve(router, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/produtos/3", rec.Header().Get("Location"))
	assert.Equal(t, "Produto adicionado ao carrinho", flashFrom(t, rec)[flashSuccess])
	require.Len(t, cart.adds, 1)
	assert.Equal(t, 4, cart.adds[0].quantity)
}

func TestAddCartItem_InvalidQuantity(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		lang    string
		message string
	}{
		{"zero", `{"product_id":3,"quantity":0}`, "", "A quantidade deve ser um número entre 1 e 10."},
		{"above max", `{"product_id":3,"quantity":11}`, "", "A quantidade deve ser um número entre 1 e 10."},
		{"missing", `{"product_id":3}`, "", "A quantidade deve ser um número entre 1 e 10."},
		{"not a number", `{"product_id":3,"quantity":"abc"}`, "", "A quantidade deve ser um número entre 1 e 10."},
		{"fraction", `{"product_id":3,"quantity":1.5}`, "", "A quantidade deve ser um número entre 1 e 10."},
		{"english", `{"product_id":3,"quantity":50}`, "en-US,en;q=0.9", "The quantity must be a number between 1 and 10."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := testDeps()
			router := newTestRouter(t, deps)

			req := jsonRequest(http.MethodPost, "/cart/items", tc.body, customerToken)
			if tc.lang != "" {
				req.Header.Set("Accept-Language", tc.lang)
			}
			rec := serve(router, req)

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "cart_error", body.ErrorType)
			assert.Equal(t, 2002, body.Code)
			assert.Equal(t, tc.message, body.Message)
			assert.Empty(t, deps.CartSvc.(*stubCartService).adds)
		})
	}
}

func TestAddCartItem_ProductErrors(t *testing.T) {
	deps := testDeps()
	deps.CartSvc.(*stubCartService).err = domain.ProductUnavailable(3)
	router := newTestRouter(t, deps)

	rec := serve(router, jsonRequest(http.MethodPost, "/cart/items", `{"product_id":3,"quantity":1}`, customerToken))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t,
		`{"success":false,"error_type":"product_error","message":"Produto #3 indisponível no momento","code":3002}`,
		rec.Body.String())
}

func TestCartRateLimit(t *testing.T) {
	deps := testDeps()
	deps.Limiter = &stubLimiter{allow: false}
	router := newTestRouter(t, deps)

	rec := serve(router, jsonRequest(http.MethodDelete, "/cart", "", customerToken))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":2004`)

	// reads are not throttled
	rec = serve(router, jsonRequest(http.MethodGet, "/cart/count", "", customerToken))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCartRateLimit_BackendDownFailsOpen(t *testing.T) {
	deps := testDeps()
	deps.Limiter = &stubLimiter{err: errors.New("redis down")}
	router := newTestRouter(t, deps)

	rec := serve(router, jsonRequest(http.MethodDelete, "/cart", "", customerToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"removed":2`)
}

func TestGetCart_Summary(t *testing.T) {
	promo := decimal.NewFromInt(75)
	line := domain.CartLine{
		CartItem: domain.CartItem{ID: 1, UserID: 7, ProductID: 3, Quantity: 2},
		Product:  domain.Product{ID: 3, Name: "Camiseta", Price: decimal.NewFromInt(100), PromotionalPrice: &promo, Active: true},
	}
	deps := testDeps()
	deps.CartSvc.(*stubCartService).summary = &domain.CartSummary{
		Lines: []domain.CartLine{line},
		Count: 2,
		Total: decimal.NewFromInt(150),
	}
	router := newTestRouter(t, deps)

	rec := serve(router, jsonRequest(http.MethodGet, "/cart", "", customerToken))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Lines []struct {
				ProductID int64  `json:"productId"`
				Quantity  int    `json:"quantity"`
				UnitPrice string `json:"unitPrice"`
				Total     string `json:"total"`
			} `json:"lines"`
			Count int    `json:"count"`
			Total string `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data.Lines, 1)
	assert.Equal(t, "75", body.Data.Lines[0].UnitPrice)
	assert.Equal(t, "150", body.Data.Lines[0].Total)
	assert.Equal(t, 2, body.Data.Count)
	assert.Equal(t, "150", body.Data.Total)
}

func TestCartItemNotFound(t *testing.T) {
	deps := testDeps()
	deps.CartSvc.(*stubCartService).err = domain.CartItemNotFound(9)
	router := newTestRouter(t, deps)

	rec := serve(router, jsonRequest(http.MethodPatch, "/cart/items/9", `{"quantity":3}`, customerToken))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Item do produto #9 não encontrado no carrinho")
}

func TestSessionExpired(t *testing.T) {
	deps := testDeps()
	deps.AuthSvc.(*stubAuthService).expired = map[string]bool{"old": true}
	router := newTestRouter(t, deps)

	rec := serve(router, jsonRequest(http.MethodGet, "/cart/total", "", "old"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":1004`)
}
