package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
)

// ErrorKind groups domain errors by the part of the shop that raised them.
type ErrorKind string

const (
	KindAuth    ErrorKind = "auth"
	KindProduct ErrorKind = "product"
	KindCart    ErrorKind = "cart"
)

// Type is the error_type value exposed to API clients.
func (k ErrorKind) Type() string {
	return string(k) + "_error"
}

// RenderStrategy tells browser clients where an error sends them.
type RenderStrategy int

const (
	RedirectBack RenderStrategy = iota
	RedirectBackWithInput
	RedirectToLogin
)

// Strategy maps an error kind to its browser render policy.
func (k ErrorKind) Strategy() RenderStrategy {
	switch k {
	case KindAuth:
		return RedirectToLogin
	case KindProduct:
		return RedirectBackWithInput
	default:
		return RedirectBack
	}
}

// LoginPath is where authentication errors send the client.
const LoginPath = "/login"

// Error is a domain error carrying everything needed to render it.
type Error struct {
	Kind       ErrorKind
	Status     int
	Code       int
	Message    string
	RedirectTo string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Type(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Type(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same kind and code, so callers can
// compare against a constructed value with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Code == e.Code
}

// Wrap attaches an underlying cause and returns the same error.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// AsError extracts a domain error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Auth errors.

func NewAuthError(message string) *Error {
	if message == "" {
		message = "Falha de autenticação"
	}
	return &Error{Kind: KindAuth, Status: http.StatusUnauthorized, Code: 1000, Message: message, RedirectTo: LoginPath}
}

func Unauthenticated() *Error {
	e := NewAuthError("Você precisa estar autenticado para continuar")
	e.Code = 1001
	return e
}

// UnauthorizedAccess is raised when an authenticated user lacks permission.
func UnauthorizedAccess(resource string) *Error {
	msg := "Acesso não autorizado"
	if resource != "" {
		msg = fmt.Sprintf("Acesso não autorizado a %s", resource)
	}
	e := NewAuthError(msg)
	e.Status = http.StatusForbidden
	e.Code = 1002
	return e
}

func InvalidCredentials() *Error {
	e := NewAuthError("Credenciais inválidas")
	e.Code = 1003
	return e
}

func SessionExpired() *Error {
	e := NewAuthError("Sua sessão expirou, faça login novamente")
	e.Code = 1004
	return e
}

// Product errors.

func NewProductError(message string) *Error {
	if message == "" {
		message = "Erro ao processar o produto"
	}
	return &Error{Kind: KindProduct, Status: http.StatusBadRequest, Code: 3000, Message: message}
}

func ProductNotFound(id int64) *Error {
	e := NewProductError(fmt.Sprintf("Produto #%d não encontrado", id))
	e.Status = http.StatusNotFound
	e.Code = 3001
	return e
}

func ProductUnavailable(id int64) *Error {
	e := NewProductError(fmt.Sprintf("Produto #%d indisponível no momento", id))
	e.Code = 3002
	return e
}

func InvalidProductData(message string) *Error {
	e := NewProductError(message)
	e.Code = 3003
	return e
}

// Cart errors.

func NewCartError(message string) *Error {
	if message == "" {
		message = "Erro ao processar o carrinho"
	}
	return &Error{Kind: KindCart, Status: http.StatusBadRequest, Code: 2000, Message: message}
}

func CartItemNotFound(productID int64) *Error {
	e := NewCartError(fmt.Sprintf("Item do produto #%d não encontrado no carrinho", productID))
	e.Status = http.StatusNotFound
	e.Code = 2001
	return e
}

func InvalidQuantity(message string) *Error {
	e := NewCartError(message)
	e.Status = http.StatusUnprocessableEntity
	e.Code = 2002
	return e
}

func CartEmpty() *Error {
	e := NewCartError("O carrinho está vazio")
	e.Code = 2003
	return e
}

func CartRateLimited() *Error {
	e := NewCartError("Muitas operações no carrinho, tente novamente em instantes")
	e.Status = http.StatusTooManyRequests
	e.Code = 2004
	return e
}
