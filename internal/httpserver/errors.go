package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"lojavirtual/internal/domain"
)

const (
	flashCookie  = "flash"
	flashCtxKey  = "flash"
	flashError   = "error"
	flashSuccess = "success"
	flashInput   = "old_input"
)

type errorResponse struct {
	Success    bool   `json:"success"`
	ErrorType  string `json:"error_type"`
	Message    string `json:"message"`
	Code       int    `json:"code"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// wantsJSON reports whether the client expects a JSON body rather than a
// redirect.
func wantsJSON(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		return true
	}
	if strings.EqualFold(c.GetHeader("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	return strings.HasPrefix(c.ContentType(), "application/json")
}

// renderError answers with the domain error carried by err, or a generic
// server error for anything else.
func (a *api) renderError(c *gin.Context, err error) {
	derr, ok := domain.AsError(err)
	if !ok {
		a.logger.Error().Err(err).
			Str("request_id", requestID(c)).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		if wantsJSON(c) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
				ErrorType: "server_error",
				Message:   serverErrorMessage,
				Code:      http.StatusInternalServerError,
			})
			return
		}
		a.setFlash(c, map[string]any{flashError: serverErrorMessage})
		c.Redirect(http.StatusSeeOther, backURL(c))
		c.Abort()
		return
	}

	if derr.Err != nil {
		a.logger.Debug().Err(derr.Err).Str("error_type", derr.Kind.Type()).Int("code", derr.Code).Msg("domain error")
	}

	if wantsJSON(c) {
		c.AbortWithStatusJSON(derr.Status, errorResponse{
			ErrorType:  derr.Kind.Type(),
			Message:    derr.Message,
			Code:       derr.Code,
			RedirectTo: derr.RedirectTo,
		})
		return
	}

	flash := map[string]any{flashError: derr.Message}
	target := backURL(c)
	switch derr.Kind.Strategy() {
	case domain.RedirectToLogin:
		target = domain.LoginPath
		if derr.RedirectTo != "" {
			target = derr.RedirectTo
		}
	case domain.RedirectBackWithInput:
		if input := submittedInput(c); len(input) > 0 {
			flash[flashInput] = input
		}
	}
	a.setFlash(c, flash)
	c.Redirect(http.StatusSeeOther, target)
	c.Abort()
}

const serverErrorMessage = "Erro interno do servidor"

// backURL is the same-site Referer path, or "/".
func backURL(c *gin.Context) string {
	ref := c.GetHeader("Referer")
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "/"
	}
	if u.Host != "" && u.Host != c.Request.Host {
		return "/"
	}
	if u.Path == "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}

// submittedInput returns the posted form fields, leaving out secrets.
func submittedInput(c *gin.Context) map[string]string {
	if err := c.Request.ParseMultipartForm(1 << 20); err != nil && c.Request.PostForm == nil {
		_ = c.Request.ParseForm()
	}
	out := make(map[string]string, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		if len(values) == 0 || strings.Contains(strings.ToLower(key), "password") {
			continue
		}
		out[key] = values[0]
	}
	return out
}

func (a *api) setFlash(c *gin.Context, data map[string]any) {
	raw, err := json.Marshal(data)
	if err != nil {
		a.logger.Warn().Err(err).Msg("encode flash")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, base64.RawURLEncoding.EncodeToString(raw), 300, "/", "", a.opts.CookieSecure, true)
}

// consumeFlash moves the flash cookie into the request context and expires
// it, so a flash message is seen by exactly one request.
func (a *api) consumeFlash() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, err := c.Cookie(flashCookie)
		if err == nil && value != "" {
			c.SetCookie(flashCookie, "", -1, "/", "", a.opts.CookieSecure, true)
			if raw, err := base64.RawURLEncoding.DecodeString(value); err == nil {
				var data map[string]any
				if json.Unmarshal(raw, &data) == nil && len(data) > 0 {
					c.Set(flashCtxKey, data)
				}
			}
		}
		c.Next()
	}
}

func flashData(c *gin.Context) map[string]any {
	v, ok := c.Get(flashCtxKey)
	if !ok {
		return nil
	}
	data, _ := v.(map[string]any)
	return data
}
