package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"cleanstreet-be/config"
	"cleanstreet-be/middlewares"
	"cleanstreet-be/services"
	"cleanstreet-be/utils"
)

// Deps is everything the router needs. Redis may be nil.
type Deps struct {
	Config       *config.Config
	Logger       *slog.Logger
	Tokens       *utils.JWTManager
	Signer       *utils.ImageKitSigner
	Issues       *services.IssueService
	Interactions *services.InteractionService
	Auth         *services.AuthService
	Redis        *redis.Client
}

// Setup builds the gin engine with middleware and every route group.
func Setup(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestLogger(d.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.CORS.Origins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middlewares.RequestIDHeader},
		ExposeHeaders:    []string{middlewares.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	auth := middlewares.AuthMiddleware(d.Tokens, d.Config.Auth.CookieName, d.Logger)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/health", health(d))

	api := r.Group("/api")
	AuthRoutes(api, d, auth)
	IssueRoutes(api, d, auth)
	UploadRoutes(api, d)

	return r
}

func health(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"storage": "ok"}
		code := http.StatusOK
		if err := d.Issues.Ping(ctx); err != nil {
			status["storage"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if d.Redis != nil {
			status["redis"] = "ok"
			if err := d.Redis.Ping(ctx).Err(); err != nil {
				status["redis"] = err.Error()
				code = http.StatusServiceUnavailable
			}
		}
		c.JSON(code, status)
	}
}
