package routes

import (
	"github.com/gin-gonic/gin"

	"cleanstreet-be/controllers"
)

// AuthRoutes sets up account routes under /api.
func AuthRoutes(api *gin.RouterGroup, d Deps, auth gin.HandlerFunc) {
	h := controllers.NewAuthController(d.Auth, controllers.CookieConfig{
		Name:   d.Config.Auth.CookieName,
		Domain: d.Config.Auth.CookieDomain,
		Secure: d.Config.Auth.CookieSecure,
		MaxAge: d.Config.Auth.TokenTTL,
	}, d.Logger)

	group := api.Group("/auth")
	{
		group.POST("/register", h.RegisterUser)
		group.POST("/login", h.LoginUser)
		group.POST("/logout", h.LogoutUser)
		group.GET("/me", auth, h.GetMe)
	}
	api.GET("/profile", auth, h.GetMe)
}
