package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk-api/internal/infrastructure/backend"
	"github.com/sangkips/billdesk-api/internal/presentation/http/dto/response"
	"github.com/sangkips/billdesk-api/pkg/utils"
)

const userEmailKey = "user_email"

// AuthMiddleware accepts the bearer token the backend issued to the operator.
// The raw token rides along in the request context so backend calls made on
// the operator's behalf carry it.
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "Authorization header is required")
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
			unauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(userEmailKey, claims.Email())
		c.Request = c.Request.WithContext(backend.WithAccessToken(c.Request.Context(), token))
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	response.Unauthorized(c, message)
	c.Abort()
}

// GetUserEmail returns the authenticated operator, empty when unauthenticated
func GetUserEmail(c *gin.Context) string {
	return c.GetString(userEmailKey)
}
