package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sangkips/billdesk-api/internal/application/service"
	"github.com/sangkips/billdesk-api/internal/config"
	"github.com/sangkips/billdesk-api/internal/domain/entity"
	"github.com/sangkips/billdesk-api/internal/infrastructure/artifact"
	"github.com/sangkips/billdesk-api/internal/infrastructure/backend"
	"github.com/sangkips/billdesk-api/internal/infrastructure/database"
	"github.com/sangkips/billdesk-api/internal/infrastructure/repository"
	"github.com/sangkips/billdesk-api/internal/infrastructure/telemetry"
	"github.com/sangkips/billdesk-api/internal/presentation/http/handler"
	"github.com/sangkips/billdesk-api/internal/presentation/http/routes"
	"github.com/sangkips/billdesk-api/pkg/logger"
	"github.com/sangkips/billdesk-api/pkg/printer"
	"github.com/sangkips/billdesk-api/pkg/utils"
)

func main() {
	// Load configuration
	cfg, cfgErr := config.Load()

	log := logger.New(cfg.App.Env, cfg.Log.Level)
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("no .env file loaded, using environment only")
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	metrics := telemetry.NewBillingMetrics("billdesk", prometheus.DefaultRegisterer)

	// Backend API client
	backendClient, err := backend.NewClient(&cfg.Backend, nil, metrics, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create backend client")
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Leeway)

	// Initialize repositories
	productRepo := backend.NewProductRepository(backendClient)
	customerRepo := backend.NewCustomerRepository(backendClient)
	invoiceRepo := backend.NewInvoiceRepository(backendClient)
	snapshotRepo := repository.NewCartSnapshotRepository(db)
	attemptRepo := repository.NewInvoiceAttemptRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Invoice PDF storage
	var artifacts artifact.Store
	if cfg.Artifact.Enabled {
		store, err := artifact.NewLocalStore(cfg.Artifact.Path)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Artifact.Path).Msg("invoice PDFs will not be saved")
		} else {
			artifacts = store
		}
	}

	// Initialize thermal printer
	thermalPrinter, err := printer.NewPrinterFromConfig(
		cfg.Printer.Type,
		cfg.Printer.USBPath,
		cfg.Printer.Address,
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize printer")
		thermalPrinter = printer.NewNullPrinter()
	}

	// Initialize services
	printerService := service.NewPrinterService(thermalPrinter, invoiceRepo, entity.ReceiptHeader{
		StoreName: cfg.Printer.StoreName,
		Address:   cfg.Printer.StoreAddress,
		Phone:     cfg.Printer.StorePhone,
		TaxID:     cfg.Printer.StoreTaxID,
	}, cfg.Printer.Width, log)
	productService := service.NewProductService(productRepo)
	cartService := service.NewCartService(productRepo, snapshotRepo, metrics, log)
	reconciliationService := service.NewReconciliationService(customerRepo, cfg.Backend.CustomerLookupLimit, metrics, log)
	invoiceService := service.NewInvoiceService(
		cartService,
		reconciliationService,
		invoiceRepo,
		attemptRepo,
		service.InvoiceServiceConfig{
			Artifacts:     artifacts,
			Printer:       printerService,
			AutoPrint:     cfg.Printer.AutoPrint,
			SubmitTimeout: cfg.Backend.SubmitTimeout,
		},
		metrics,
		log,
	)

	// Initialize handlers
	handlers := &routes.Handlers{
		Billing: handler.NewBillingHandler(cartService, invoiceService),
		Invoice: handler.NewInvoiceHandler(invoiceService),
		Product: handler.NewProductHandler(productService),
		Printer: handler.NewPrinterHandler(printerService),
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get underlying sql.DB")
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		Logger:          log,
		Metrics:         promhttp.Handler(),
		Ping:            sqlDB.PingContext,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Expired idempotency keys
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n, err := idempotencyRepo.DeleteExpired(ctx)
				if err != nil {
					log.Warn().Err(err).Msg("failed to delete expired idempotency keys")
					continue
				}
				log.Debug().Int64("deleted", n).Msg("expired idempotency keys removed")
			case <-ctx.Done():
				return
			}
		}
	}()

	// Get port from environment or use default
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("service", cfg.App.Name).Str("port", port).Str("env", cfg.App.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// Let in-flight invoice attempts and their follow-ups finish
	invoiceService.Wait()

	if err := sqlDB.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close database")
	}
}
