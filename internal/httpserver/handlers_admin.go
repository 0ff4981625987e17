package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"lojavirtual/internal/domain"
	"lojavirtual/internal/importer"
)

type productRequest struct {
	SKU              string      `json:"sku" form:"sku" binding:"required,max=64"`
	Name             string      `json:"name" form:"name" binding:"required,max=255"`
	Description      string      `json:"description" form:"description"`
	Price            json.Number `json:"price" form:"price" binding:"required,numeric"`
	PromotionalPrice json.Number `json:"promotional_price" form:"promotional_price" binding:"omitempty,numeric"`
	Active           *bool       `json:"active" form:"active"`
}

func (r productRequest) toProduct() (domain.Product, error) {
	price, err := decimal.NewFromString(r.Price.String())
	if err != nil {
		return domain.Product{}, err
	}
	p := domain.Product{
		SKU:         r.SKU,
		Name:        r.Name,
		Description: r.Description,
		Price:       price,
		Active:      r.Active == nil || *r.Active,
	}
	if r.PromotionalPrice != "" {
		promo, err := decimal.NewFromString(r.PromotionalPrice.String())
		if err != nil {
			return domain.Product{}, err
		}
		p.PromotionalPrice = &promo
	}
	return p, nil
}

func (a *api) upsertProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBind(&req); err != nil {
		a.renderError(c, productBindError(err))
		return
	}
	p, err := req.toProduct()
	if err != nil {
		a.renderError(c, domain.InvalidProductData("Preço inválido").Wrap(err))
		return
	}
	saved, err := a.deps.ProductSvc.Upsert(c.Request.Context(), p)
	if err != nil {
		a.renderError(c, err)
		return
	}
	a.respond(c, http.StatusOK, gin.H{"data": saved}, "Produto salvo")
}

func (a *api) importProducts(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		a.renderError(c, domain.InvalidProductData("Envie o arquivo CSV no campo file").Wrap(err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		a.renderError(c, err)
		return
	}
	defer f.Close()

	count, err := importer.NewCSVImporter(f, a.deps.ProductSvc).Run(c.Request.Context())
	if err != nil {
		if _, ok := domain.AsError(err); !ok {
			err = domain.InvalidProductData("Falha ao importar produtos: " + err.Error()).Wrap(err)
		}
		a.renderError(c, err)
		return
	}
	a.logger.Info().Int("imported", count).Str("file", fh.Filename).Msg("products imported")
	a.respond(c, http.StatusOK, gin.H{"imported": count}, "Produtos importados")
}

func productBindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "SKU":
			return domain.InvalidProductData("O SKU do produto é obrigatório").Wrap(err)
		case "Name":
			return domain.InvalidProductData("O nome do produto é obrigatório").Wrap(err)
		}
		return domain.InvalidProductData("Preço inválido").Wrap(err)
	}
	return domain.InvalidProductData("").Wrap(err)
}
