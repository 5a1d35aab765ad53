package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/api"
	"fintrack/internal/api/handlers"
	"fintrack/internal/compress"
	"fintrack/internal/currency"
	"fintrack/internal/document"
	"fintrack/internal/repository"
	"fintrack/internal/service"
	"fintrack/internal/storage"
	"fintrack/internal/vision"
	"fintrack/pkg/auth"
	"fintrack/pkg/config"
	"fintrack/pkg/logger"
	"fintrack/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting fintrack service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	expenseRepo := repository.NewExpenseRepository(db, appLogger)
	debtRepo := repository.NewDebtRepository(db, appLogger)
	paymentRepo := repository.NewPaymentRepository(db, appLogger)
	assetRepo := repository.NewAssetRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize receipt pipeline components
	store, err := storage.New(&cfg.Storage, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	rasterizer := document.NewRasterizer(appLogger)
	if probe := rasterizer.Probe(); !probe.Available() {
		appLogger.Warn("PDF rendering unavailable, PDF receipts will be rejected",
			zap.String("reason", probe.Reason()))
	}

	compressor := compress.NewCompressor(&cfg.TinyPNG, appLogger)
	extractor := vision.NewExtractor(&cfg.Groq, appLogger)
	converter := currency.NewConverter(&cfg.Currency, appLogger)

	receiptService := service.NewReceiptService(
		rasterizer, compressor, extractor, converter, store,
		cfg.Storage.ScratchDir, appLogger,
	)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)
	expenseService := service.NewExpenseService(expenseRepo, receiptService, appLogger)
	debtService := service.NewDebtService(debtRepo, paymentRepo, appLogger)
	assetService := service.NewAssetService(assetRepo, converter, appLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	expenseHandler := handlers.NewExpenseHandler(expenseService, appLogger)
	debtHandler := handlers.NewDebtHandler(debtService, appLogger)
	paymentHandler := handlers.NewPaymentHandler(debtService, appLogger)
	assetHandler := handlers.NewAssetHandler(assetService, appLogger)

	// Setup router
	app := api.SetupRouter(
		authHandler, expenseHandler, debtHandler, paymentHandler, assetHandler,
		jwtManager, &cfg.Server, appLogger,
	)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
