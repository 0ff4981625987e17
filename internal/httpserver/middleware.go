package httpserver

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lojavirtual/internal/domain"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	userCtxKey      = "user"
	sessionCookie   = "session"
)

// Aliases maps middleware names to handlers so routes can refer to them by
// name.
type Aliases map[string]gin.HandlerFunc

// Use resolves names in order. An unknown name is a wiring bug and panics
// while the router is built.
func (a Aliases) Use(names ...string) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(names))
	for _, name := range names {
		h, ok := a[name]
		if !ok {
			panic(fmt.Sprintf("httpserver: unknown middleware alias %q (known: %s)", name, strings.Join(a.names(), ", ")))
		}
		out = append(out, h)
	}
	return out
}

func (a Aliases) names() []string {
	out := make([]string, 0, len(a))
	for name := range a {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (a *api) aliases() Aliases {
	return Aliases{
		"log.requests":    a.logRequests(),
		"require.auth":    a.requireAuth(),
		"admin":           a.requireAdmin(),
		"cart.rate.limit": a.cartRateLimit(),
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func (a *api) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := a.logger.Info()
		switch {
		case status >= 500:
			event = a.logger.Error()
		case status >= 400:
			event = a.logger.Warn()
		}
		if u := currentUser(c); u != nil {
			event = event.Int64("user_id", u.ID)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("request_id", requestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

func (a *api) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			a.renderError(c, domain.Unauthenticated())
			return
		}
		user, err := a.deps.AuthSvc.LookupByToken(c.Request.Context(), token)
		if err != nil {
			a.renderError(c, err)
			return
		}
		c.Set(userCtxKey, user)
		c.Next()
	}
}

func (a *api) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			a.renderError(c, domain.Unauthenticated())
			return
		}
		if !user.IsAdmin {
			a.renderError(c, domain.UnauthorizedAccess("painel administrativo"))
			return
		}
		c.Next()
	}
}

// cartRateLimit throttles per user, or per client IP before login. A
// failing limiter backend lets the request through.
func (a *api) cartRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.deps.Limiter == nil {
			c.Next()
			return
		}
		key := "cart:ip:" + c.ClientIP()
		if u := currentUser(c); u != nil {
			key = "cart:user:" + strconv.FormatInt(u.ID, 10)
		}
		allowed, err := a.deps.Limiter.Allow(c.Request.Context(), key)
		if err != nil {
			a.logger.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable")
			c.Next()
			return
		}
		if !allowed {
			a.deps.Business.CartRateLimited()
			c.Header("Retry-After", "1")
			a.renderError(c, domain.CartRateLimited())
			return
		}
		c.Next()
	}
}

// sessionToken reads a bearer token, falling back to the session cookie.
func sessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if v, err := c.Cookie(sessionCookie); err == nil {
		return v
	}
	return ""
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(userCtxKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}
