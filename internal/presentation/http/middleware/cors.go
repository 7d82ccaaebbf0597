package middleware

import (
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sangkips/billdesk-api/internal/config"
)

var (
	devOrigins     = []string{"http://localhost:3000", "http://localhost:3001", "http://127.0.0.1:3000"}
	defaultMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	defaultHeaders = []string{"Accept", "Authorization", "Content-Type", "Origin", "X-Request-ID"}

	// billingHeaders are allowed even when the operator overrides the list
	billingHeaders = []string{IdempotencyKeyHeader, BusinessHeader}
)

// CORSMiddleware lets the billing front end call the API from the browser
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     orDefault(cfg.AllowedOrigins, devOrigins),
		AllowMethods:     orDefault(cfg.AllowedMethods, defaultMethods),
		AllowHeaders:     withBillingHeaders(orDefault(cfg.AllowedHeaders, defaultHeaders)),
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Content-Disposition", "X-Request-ID", "X-Idempotency-Replayed"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

func withBillingHeaders(headers []string) []string {
	out := slices.Clone(headers)
	for _, required := range billingHeaders {
		if !slices.ContainsFunc(out, func(h string) bool { return strings.EqualFold(h, required) }) {
			out = append(out, required)
		}
	}
	return out
}
