package middlewares

import (
	"net/http"
	"strings"

	"civicsetu-be/logger"
	"civicsetu-be/utils"

	"github.com/gin-gonic/gin"
)

const (
	// AuthCookie carries the token for browser clients.
	AuthCookie = "auth_token"

	ContextUserID = "user_id"
	ContextRole   = "role"
)

func tokenFromRequest(c *gin.Context) string {
	authHeader := c.Request.Header.Get("Authorization")
	if authHeader != "" {
		// Extracting token from "Bearer <token>" format
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if cookie, err := c.Cookie(AuthCookie); err == nil {
		return cookie
	}
	return ""
}

// AuthMiddleware rejects requests without a valid token and stores the
// caller's id and role on the context.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	log := logger.WithComponent("auth")
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "No authorization token provided")
			return
		}

		claims, err := utils.ParseToken(jwtSecret, tokenString)
		if err != nil {
			log.Debug("token validation failed", "error", err, "path", c.Request.URL.Path)
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := tokenFromRequest(c); tokenString != "" {
			if claims, err := utils.ParseToken(jwtSecret, tokenString); err == nil {
				c.Set(ContextUserID, claims.UserID)
				c.Set(ContextRole, claims.Role)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the id and role set by the auth middlewares.
func CurrentUser(c *gin.Context) (userID, role string, ok bool) {
	userID = c.GetString(ContextUserID)
	role = c.GetString(ContextRole)
	return userID, role, userID != ""
}
