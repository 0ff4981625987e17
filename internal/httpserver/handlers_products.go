package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lojavirtual/internal/domain"
)

func (a *api) listProducts(c *gin.Context) {
	products, err := a.deps.ProductSvc.List(c.Request.Context())
	if err != nil {
		a.renderError(c, err)
		return
	}
	a.respond(c, http.StatusOK, gin.H{"data": products}, "")
}

func (a *api) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		a.renderError(c, domain.InvalidProductData("Identificador de produto inválido"))
		return
	}
	product, err := a.deps.ProductSvc.Get(c.Request.Context(), id)
	if err != nil {
		a.renderError(c, err)
		return
	}
	a.respond(c, http.StatusOK, gin.H{"data": product}, "")
}

func (a *api) listPromotions(c *gin.Context) {
	promos, err := a.deps.PromotionSvc.Active(c.Request.Context())
	if err != nil {
		a.renderError(c, err)
		return
	}
	a.respond(c, http.StatusOK, gin.H{"data": promos}, "")
}
