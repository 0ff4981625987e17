package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// respond writes payload for JSON clients. Browsers are sent back with
// message as a success flash instead.
func (a *api) respond(c *gin.Context, status int, payload gin.H, message string) {
	if wantsJSON(c) || c.Request.Method == http.MethodGet {
		body := gin.H{"success": true}
		for k, v := range payload {
			body[k] = v
		}
		if message != "" {
			body["message"] = message
		}
		if flash := flashData(c); flash != nil {
			body["flash"] = flash
		}
		c.JSON(status, body)
		return
	}
	if message != "" {
		a.setFlash(c, map[string]any{flashSuccess: message})
	}
	c.Redirect(http.StatusSeeOther, backURL(c))
}

// locale picks the message language from Accept-Language.
func (a *api) locale(c *gin.Context) string {
	lang := strings.ToLower(c.GetHeader("Accept-Language"))
	if strings.HasPrefix(lang, "en") {
		return "en"
	}
	if strings.HasPrefix(lang, "pt") {
		return "pt_BR"
	}
	return a.opts.DefaultLocale
}
