package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cleanstreet-be/middlewares"
	"cleanstreet-be/services"
)

// CookieConfig describes the auth_token cookie set on login.
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
	MaxAge time.Duration
}

type AuthController struct {
	auth   *services.AuthService
	cookie CookieConfig
	logger *slog.Logger
}

func NewAuthController(auth *services.AuthService, cookie CookieConfig, logger *slog.Logger) *AuthController {
	return &AuthController{auth: auth, cookie: cookie, logger: logger}
}

// RegisterUser handles POST /api/auth/register
func (h *AuthController) RegisterUser(c *gin.Context) {
	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c)
		return
	}

	res, err := h.auth.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// LoginUser handles POST /api/auth/login. The token is returned in the body
// and also set as an HttpOnly cookie.
func (h *AuthController) LoginUser(c *gin.Context) {
	var input services.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c)
		return
	}

	res, err := h.auth.Login(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.setCookie(c, res.Token, int(h.cookie.MaxAge.Seconds()))
	c.JSON(http.StatusOK, res)
}

// LogoutUser handles POST /api/auth/logout by clearing the cookie.
func (h *AuthController) LogoutUser(c *gin.Context) {
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// GetMe handles GET /api/auth/me and GET /api/profile
func (h *AuthController) GetMe(c *gin.Context) {
	user, err := h.auth.Profile(c.Request.Context(), middlewares.RequesterFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthController) setCookie(c *gin.Context, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if h.cookie.Secure {
		// Cross-origin cookies need SameSite=None, which browsers only accept
		// with Secure.
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		MaxAge:   maxAge,
		Path:     "/",
		Domain:   h.cookie.Domain,
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: sameSite,
	})
}
