package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lojavirtual/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (a *api) loginPage(c *gin.Context) {
	a.respond(c, http.StatusOK, gin.H{"login": gin.H{"method": http.MethodPost, "fields": []string{"email", "password"}}}, "")
}

func (a *api) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		a.renderError(c, domain.InvalidCredentials().Wrap(err))
		return
	}
	session, err := a.deps.AuthSvc.Login(c.Request.Context(), req.Email, req.Password)
	a.deps.Business.Login(err)
	if err != nil {
		a.renderError(c, err)
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, session.Token, maxAge, "/", "", a.opts.CookieSecure, true)

	if !wantsJSON(c) {
		a.setFlash(c, map[string]any{flashSuccess: "Login realizado com sucesso"})
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"token":      session.Token,
		"token_type": "Bearer",
		"expires_in": int(a.deps.AuthSvc.TokenTTL().Seconds()),
		"user":       session.User,
	})
}

func (a *api) logout(c *gin.Context) {
	if err := a.deps.AuthSvc.Logout(c.Request.Context(), sessionToken(c)); err != nil {
		a.renderError(c, err)
		return
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", a.opts.CookieSecure, true)
	if !wantsJSON(c) {
		c.Redirect(http.StatusSeeOther, domain.LoginPath)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
