package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"lojavirtual/internal/domain"
	"lojavirtual/internal/promotion"
	"lojavirtual/internal/ratelimit"
	authsvc "lojavirtual/internal/service/auth"
	productsvc "lojavirtual/internal/service/product"
	"lojavirtual/internal/telemetry"
	"lojavirtual/internal/validation"
)

type productService interface {
	List(ctx context.Context) ([]productsvc.Listing, error)
	Get(ctx context.Context, id int64) (*productsvc.Listing, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

type promotionService interface {
	Active(ctx context.Context) ([]promotion.Promotion, error)
}

type cartService interface {
	Rule() validation.QuantityRule
	Summary(ctx context.Context, userID int64) (*domain.CartSummary, error)
	Add(ctx context.Context, userID, productID int64, quantity int) (*domain.CartItem, error)
	Update(ctx context.Context, userID, productID int64, quantity int) error
	Remove(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) (int64, error)
	Count(ctx context.Context, userID int64) (int, error)
	Total(ctx context.Context, userID int64) (decimal.Decimal, error)
}

type authService interface {
	Login(ctx context.Context, email, password string) (*authsvc.Session, error)
	LookupByToken(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
	TokenTTL() time.Duration
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the routes call into.
type Deps struct {
	ProductSvc     productService
	PromotionSvc   promotionService
	CartSvc        cartService
	AuthSvc        authService
	Limiter        ratelimit.Limiter
	HTTPMetrics    *telemetry.HTTPMetrics
	Business       *telemetry.BusinessMetrics
	MetricsHandler http.Handler
}

type Options struct {
	CORSOrigins   []string
	CookieSecure  bool
	DefaultLocale string
}

type api struct {
	logger zerolog.Logger
	deps   Deps
	opts   Options
}

// buildRouter wires routes for the shop API.
func buildRouter(logger zerolog.Logger, db pinger, deps Deps, opts Options) (*gin.Engine, error) {
	if deps.ProductSvc == nil || deps.PromotionSvc == nil || deps.CartSvc == nil || deps.AuthSvc == nil {
		return nil, errors.New("httpserver: missing service dependency")
	}
	if err := registerValidators(deps.CartSvc.Rule()); err != nil {
		return nil, err
	}

	a := &api{logger: logger, deps: deps, opts: opts}
	aliases := a.aliases()

	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, rec any) {
		a.logger.Error().Interface("panic", rec).Str("request_id", requestID(c)).Msg("panic recovered")
		a.renderError(c, errors.New("panic"))
	}))
	router.Use(requestIDMiddleware())
	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if deps.HTTPMetrics != nil {
		router.Use(deps.HTTPMetrics.Middleware())
	}
	router.Use(a.consumeFlash())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	if deps.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	public := router.Group("", aliases.Use("log.requests")...)
	public.GET("/login", a.loginPage)
	public.POST("/login", a.login)
	public.POST("/logout", a.logout)
	public.GET("/products", a.listProducts)
	public.GET("/products/:id", a.getProduct)
	public.GET("/promotions", a.listPromotions)

	cart := router.Group("/cart", aliases.Use("log.requests", "require.auth")...)
	cart.GET("", a.getCart)
	cart.GET("/count", a.cartCount)
	cart.GET("/total", a.cartTotal)

	cartWrites := cart.Group("", aliases.Use("cart.rate.limit")...)
	cartWrites.POST("/items", a.addCartItem)
	cartWrites.PATCH("/items/:productId", a.updateCartItem)
	cartWrites.DELETE("/items/:productId", a.removeCartItem)
	cartWrites.DELETE("", a.clearCart)

	admin := router.Group("/admin", aliases.Use("log.requests", "require.auth", "admin")...)
	admin.PUT("/products", a.upsertProduct)
	admin.POST("/products/import", a.importProducts)

	router.NoRoute(func(c *gin.Context) {
		if wantsJSON(c) {
			c.JSON(http.StatusNotFound, errorResponse{ErrorType: "not_found", Message: "Recurso não encontrado", Code: http.StatusNotFound})
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	})

	return router, nil
}

// registerValidators binds the cart quantity rule to gin's validator.
func registerValidators(rule validation.QuantityRule) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("httpserver: unexpected validator engine")
	}
	return rule.Register(v)
}
