package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"lojavirtual/internal/domain"
	"lojavirtual/internal/promotion"
	authsvc "lojavirtual/internal/service/auth"
	productsvc "lojavirtual/internal/service/product"
	"lojavirtual/internal/validation"
)

type stubProductService struct {
	listings []productsvc.Listing
	getErr   error
	upserted []domain.Product
	err      error
}

func (s *stubProductService) List(_ context.Context) ([]productsvc.Listing, error) {
	return s.listings, s.err
}

func (s *stubProductService) Get(_ context.Context, id int64) (*productsvc.Listing, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, l := range s.listings {
		if l.ID == id {
			clone := l
			return &clone, nil
		}
	}
	return nil, domain.ProductNotFound(id)
}

func (s *stubProductService) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p.ID = int64(len(s.upserted) + 1)
	s.upserted = append(s.upserted, p)
	return &p, nil
}

type stubPromotionService struct {
	promos []promotion.Promotion
	err    error
}

func (s *stubPromotionService) Active(_ context.Context) ([]promotion.Promotion, error) {
	return s.promos, s.err
}

type addCall struct {
	userID, productID int64
	quantity          int
}

type stubCartService struct {
	rule    validation.QuantityRule
	summary *domain.CartSummary
	adds    []addCall
	err     error
	count   int
	total   decimal.Decimal
}

func (s *stubCartService) Rule() validation.QuantityRule {
	return s.rule
}

func (s *stubCartService) Summary(_ context.Context, _ int64) (*domain.CartSummary, error) {
	if s.summary == nil {
		return &domain.CartSummary{Lines: []domain.CartLine{}}, s.err
	}
	return s.summary, s.err
}

func (s *stubCartService) Add(_ context.Context, userID, productID int64, quantity int) (*domain.CartItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.adds = append(s.adds, addCall{userID, productID, quantity})
	return &domain.CartItem{ID: 1, UserID: userID, ProductID: productID, Quantity: quantity}, nil
}

func (s *stubCartService) Update(_ context.Context, _, _ int64, _ int) error {
	return s.err
}

func (s *stubCartService) Remove(_ context.Context, _, _ int64) error {
	return s.err
}

func (s *stubCartService) Clear(_ context.Context, _ int64) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return 2, nil
}

func (s *stubCartService) Count(_ context.Context, _ int64) (int, error) {
	return s.count, s.err
}

func (s *stubCartService) Total(_ context.Context, _ int64) (decimal.Decimal, error) {
	return s.total, s.err
}

type stubAuthService struct {
	users     map[string]*domain.User
	expired   map[string]bool
	session   *authsvc.Session
	loginErr  error
	loggedOut []string
}

func (s *stubAuthService) Login(_ context.Context, _, _ string) (*authsvc.Session, error) {
	return s.session, s.loginErr
}

func (s *stubAuthService) LookupByToken(_ context.Context, token string) (*domain.User, error) {
	if s.expired[token] {
		return nil, domain.SessionExpired()
	}
	u, ok := s.users[token]
	if !ok {
		return nil, domain.Unauthenticated()
	}
	return u, nil
}

func (s *stubAuthService) Logout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return nil
}

func (s *stubAuthService) TokenTTL() time.Duration {
	return time.Hour
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

const (
	customerToken = "customer-token"
	adminToken    = "admin-token"
)

func testDeps() Deps {
	return Deps{
		ProductSvc:   &stubProductService{},
		PromotionSvc: &stubPromotionService{},
		CartSvc:      &stubCartService{rule: validation.NewQuantityRule(10)},
		AuthSvc: &stubAuthService{users: map[string]*domain.User{
			customerToken: {ID: 7, Email: "ana@example.com"},
			adminToken:    {ID: 1, Email: "admin@example.com", IsAdmin: true},
		}},
		Limiter: &stubLimiter{allow: true},
	}
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newTestRouter(t *testing.T, deps Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(testLogger(), nil, deps, Options{DefaultLocale: "pt_BR"})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func jsonRequest(method, path, body, token string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Accept", "application/json")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
