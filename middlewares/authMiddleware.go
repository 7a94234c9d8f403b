package middlewares

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cleanstreet-be/models"
	"cleanstreet-be/utils"
)

const requesterKey = "requester"

// AuthMiddleware rejects requests without a valid token. The token is read
// from "Authorization: Bearer <token>" first, then from the named cookie.
func AuthMiddleware(tokens *utils.JWTManager, cookieName string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := requestToken(c, cookieName)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
			return
		}

		r, err := tokens.ParseToken(tokenString)
		if err != nil {
			logger.DebugContext(c.Request.Context(), "token validation failed", slog.Any("error", err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization token"})
			return
		}

		c.Set(requesterKey, r)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(tokens *utils.JWTManager, cookieName string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := requestToken(c, cookieName); tokenString != "" {
			r, err := tokens.ParseToken(tokenString)
			if err != nil {
				logger.DebugContext(c.Request.Context(), "ignoring invalid token", slog.Any("error", err))
			} else {
				c.Set(requesterKey, r)
			}
		}
		c.Next()
	}
}

func requestToken(c *gin.Context, cookieName string) string {
	tokenString := bearerToken(c.GetHeader("Authorization"))
	if tokenString == "" && cookieName != "" {
		tokenString, _ = c.Cookie(cookieName)
	}
	return tokenString
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// RequesterFrom returns the identity set by AuthMiddleware, or the zero
// Requester on unauthenticated routes.
func RequesterFrom(c *gin.Context) models.Requester {
	if v, ok := c.Get(requesterKey); ok {
		if r, ok := v.(models.Requester); ok {
			return r
		}
	}
	return models.Requester{}
}
