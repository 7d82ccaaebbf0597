package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/sangkips/billdesk-api/internal/config"
	domainRepo "github.com/sangkips/billdesk-api/internal/domain/repository"
	"github.com/sangkips/billdesk-api/internal/presentation/http/handler"
	"github.com/sangkips/billdesk-api/internal/presentation/http/middleware"
	"github.com/sangkips/billdesk-api/pkg/apperror"
	"github.com/sangkips/billdesk-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Billing *handler.BillingHandler
	Invoice *handler.InvoiceHandler
	Product *handler.ProductHandler
	Printer *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	Logger          zerolog.Logger

	// Metrics is served at Cfg.Metrics.Path when set
	Metrics http.Handler
	// Ping reports database health; nil skips the check
	Ping func(ctx context.Context) error
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(apperror.JSONFieldName)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", healthHandler(deps))

	if deps.Metrics != nil && deps.Cfg.Metrics.Enabled {
		path := deps.Cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(deps.Metrics))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(middleware.BusinessMiddleware())

		// Per-business rate limiter
		rateLimiter := middleware.NewBusinessRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: deps.Cfg.RateLimit.RequestsPerSecond(),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func healthHandler(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":   "degraded",
					"service":  deps.Cfg.App.Name,
					"database": err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	idempotency := middleware.Idempotency(middleware.IdempotencyConfig{Repo: deps.IdempotencyRepo, Logger: deps.Logger})

	// Catalog
	catalog := protected.Group("/catalog")
	{
		catalog.GET("/products", h.Product.List)
		catalog.GET("/products/:id", h.Product.Get)
	}

	// Billing sessions
	billing := protected.Group("/billing/sessions")
	{
		billing.POST("", h.Billing.OpenSession)
		billing.GET("/:id", h.Billing.GetSession)
		billing.DELETE("/:id", h.Billing.CloseSession)
		billing.GET("/:id/totals", h.Billing.Totals)
		billing.GET("/:id/events", h.Billing.Events)
		billing.GET("/:id/notifications", h.Billing.Notifications)
		billing.GET("/:id/attempts", h.Billing.Attempts)

		billing.POST("/:id/items", h.Billing.AddItem)
		billing.DELETE("/:id/items", h.Billing.ClearCart)
		billing.DELETE("/:id/items/:product_id", h.Billing.RemoveItem)
		billing.PUT("/:id/items/:product_id/quantity", h.Billing.UpdateQuantity)
		billing.PUT("/:id/items/:product_id/price", h.Billing.UpdatePrice)
		billing.PUT("/:id/discount", h.Billing.SetDiscount)

		billing.POST("/:id/checkout", h.Billing.BeginCheckout)
		billing.POST("/:id/checkout/cancel", h.Billing.CancelCheckout)
		billing.POST("/:id/invoice", idempotency, h.Billing.GenerateInvoice)
	}

	// Invoices
	invoices := protected.Group("/invoices")
	{
		invoices.GET("/:id", h.Invoice.Get)
		invoices.GET("/:id/customer", h.Invoice.CustomerInfo)
		invoices.GET("/:id/pdf", h.Invoice.DownloadPDF)
		invoices.PUT("/:id/payment-status", idempotency, h.Invoice.UpdatePaymentStatus)
		invoices.POST("/:id/mark-paid", idempotency, h.Invoice.MarkPaid)
	}

	// Printer
	printer := protected.Group("/printer")
	{
		printer.GET("/status", h.Printer.GetStatus)
		printer.POST("/test", h.Printer.TestPrint)
		printer.POST("/invoices/:id", h.Printer.PrintInvoice)
	}
}
