package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"lojavirtual/internal/domain"
	"lojavirtual/internal/validation"
)

type addItemRequest struct {
	ProductID int64       `json:"product_id" form:"product_id" binding:"required,gt=0"`
	Quantity  json.Number `json:"quantity" form:"quantity" binding:"cart_quantity"`
}

type updateItemRequest struct {
	Quantity json.Number `json:"quantity" form:"quantity" binding:"cart_quantity"`
}

type cartLineView struct {
	domain.CartLine
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
}

func (a *api) getCart(c *gin.Context) {
	user := currentUser(c)
	summary, err := a.deps.CartSvc.Summary(c.Request.Context(), user.ID)
	if err != nil {
		a.renderError(c, err)
		return
	}
	lines := make([]cartLineView, 0, len(summary.Lines))
	for _, l := range summary.Lines {
		lines = append(lines, cartLineView{CartLine: l, UnitPrice: l.UnitPrice(), Total: l.Total()})
	}
	a.respond(c, http.StatusOK, gin.H{
		"data": gin.H{
			"lines": lines,
			"count": summary.Count,
			"total": summary.Total,
		},
	}, "")
}

func (a *api) cartCount(c *gin.Context) {
	count, err := a.deps.CartSvc.Count(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		a.renderError(c, err)
		return
	}
	a.respond(c, http.StatusOK, gin.H{"count": count}, "")
}

func (a *api) cartTotal(c *gin.Context) {
	total, err := a.deps.CartSvc.Total(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		a.renderError(c, err)
		return
	}
	a.respond(c, http.StatusOK, gin.H{"total": total}, "")
}

func (a *api) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBind(&req); err != nil {
		a.renderError(c, a.cartBindError(c, err))
		return
	}
	quantity, err := a.rule(c).Validate(req.Quantity)
	if err != nil {
		a.renderError(c, err)
		return
	}
	item, err := a.deps.CartSvc.Add(c.Request.Context(), currentUser(c).ID, req.ProductID, quantity)
	if err != nil {
		a.renderError(c, a.localized(c, err))
		return
	}
	a.respond(c, http.StatusCreated, gin.H{"data": item}, "Produto adicionado ao carrinho")
}

func (a *api) updateCartItem(c *gin.Context) {
	productID, ok := a.productIDParam(c)
	if !ok {
		return
	}
	var req updateItemRequest
	if err := c.ShouldBind(&req); err != nil {
		a.renderError(c, a.cartBindError(c, err))
		return
	}
	quantity, err := a.rule(c).Validate(req.Quantity)
	if err != nil {
		a.renderError(c, err)
		return
	}
	if err := a.deps.CartSvc.Update(c.Request.Context(), currentUser(c).ID, productID, quantity); err != nil {
		a.renderError(c, a.localized(c, err))
		return
	}
	a.respond(c, http.StatusOK, gin.H{"data": gin.H{"product_id": productID, "quantity": quantity}}, "Carrinho atualizado")
}

func (a *api) removeCartItem(c *gin.Context) {
	productID, ok := a.productIDParam(c)
	if !ok {
		return
	}
	if err := a.deps.CartSvc.Remove(c.Request.Context(), currentUser(c).ID, productID); err != nil {
		a.renderError(c, err)
		return
	}
	a.respond(c, http.StatusOK, gin.H{"data": gin.H{"product_id": productID}}, "Produto removido do carrinho")
}

func (a *api) clearCart(c *gin.Context) {
	removed, err := a.deps.CartSvc.Clear(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		a.renderError(c, err)
		return
	}
	a.respond(c, http.StatusOK, gin.H{"removed": removed}, "Carrinho esvaziado")
}

func (a *api) productIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil || id <= 0 {
		a.renderError(c, domain.NewCartError("Produto inválido"))
		return 0, false
	}
	return id, true
}

// rule is the service's quantity rule speaking the client's language.
func (a *api) rule(c *gin.Context) validation.QuantityRule {
	return a.deps.CartSvc.Rule().WithLocale(a.locale(c))
}

// localized re-renders quantity errors raised by the service in the
// client's language.
func (a *api) localized(c *gin.Context, err error) error {
	if errors.Is(err, domain.InvalidQuantity("")) {
		return domain.InvalidQuantity(a.rule(c).Message(""))
	}
	return err
}

// cartBindError maps a binding failure to a cart error. Anything other than
// a bad product id is a quantity problem.
func (a *api) cartBindError(c *gin.Context, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "ProductID" {
				return domain.NewCartError("Produto inválido").Wrap(err)
			}
		}
	}
	return domain.InvalidQuantity(a.rule(c).Message("")).Wrap(err)
}
