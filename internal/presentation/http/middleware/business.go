package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	infraRepo "github.com/sangkips/billdesk-api/internal/infrastructure/repository"
	"github.com/sangkips/billdesk-api/internal/presentation/http/dto/response"
)

// BusinessHeader selects the business an operator is billing for
const BusinessHeader = "X-Business-ID"

// BusinessMiddleware reads the selected business from the X-Business-ID
// header. Requests without the header run without a business context.
func BusinessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(BusinessHeader))
		if raw == "" {
			c.Next()
			return
		}

		businessID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || businessID <= 0 {
			response.BadRequest(c, "Invalid "+BusinessHeader+" header")
			c.Abort()
			return
		}

		// Set business ID in Gin context (for middleware/handlers)
		c.Set("business_id", businessID)

		// Also set business ID in request context (for services/repositories)
		ctx := infraRepo.WithBusiness(c.Request.Context(), businessID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetBusinessID retrieves the selected business from gin context
func GetBusinessID(c *gin.Context) *int64 {
	return infraRepo.GetBusinessID(c.Request.Context())
}
