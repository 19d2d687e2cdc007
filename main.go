// @title Insight Rebalancing API
// @version 1.0
// @description Portfolio tracking and rebalancing against target allocation strategies.
// @BasePath /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/epeers/insight/config"
	_ "github.com/epeers/insight/docs"
	"github.com/epeers/insight/internal/alphavantage"
	"github.com/epeers/insight/internal/cache"
	"github.com/epeers/insight/internal/database"
	"github.com/epeers/insight/internal/handlers"
	"github.com/epeers/insight/internal/middleware"
	"github.com/epeers/insight/internal/rebalance"
	"github.com/epeers/insight/internal/repository"
	"github.com/epeers/insight/internal/scheduler"
	"github.com/epeers/insight/internal/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const quoteRefreshTimeout = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	setupLogging(cfg)

	ctx := context.Background()

	// Initialize database connection and schema
	db, err := database.New(ctx, cfg.PGURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	catalog, err := rebalance.DefaultCatalog(cfg.DefaultStrategy)
	if err != nil {
		log.Fatalf("Failed to build strategy catalog: %v", err)
	}

	avClient := alphavantage.NewClient(cfg.AVKey, alphavantage.WithRateLimit(cfg.AVRequestsPerMinute))
	memCache := cache.NewMemoryCache(cfg.QuoteTTL, cfg.QuoteStaleMax)

	// Initialize repositories
	portfolioRepo := repository.NewPortfolioRepository(db.Pool)
	assetRepo := repository.NewAssetRepository(db.Pool)
	positionRepo := repository.NewPositionRepository()
	transactionRepo := repository.NewTransactionRepository(db.Pool)
	dividendRepo := repository.NewDividendRepository(db.Pool)
	quoteCacheRepo := repository.NewQuoteCacheRepository(db.Pool)

	// Initialize services
	pricingSvc := services.NewPricingService(memCache, quoteCacheRepo, avClient, services.PricingConfig{
		QuoteTTL: cfg.QuoteTTL,
		StaleMax: cfg.QuoteStaleMax,
	})
	portfolioSvc := services.NewPortfolioService(portfolioRepo, assetRepo, services.PortfolioDefaults{
		Strategy:  catalog.Default().Name,
		Threshold: cfg.RebalanceThreshold,
	})
	transactionSvc := services.NewTransactionService(portfolioRepo, assetRepo, positionRepo, transactionRepo, dividendRepo)
	rebalanceSvc := services.NewRebalanceService(portfolioSvc, pricingSvc, catalog, cfg.RebalanceThreshold)

	// Background quote refresh
	sched := scheduler.New()
	if cfg.QuoteRefreshSchedule != "" {
		job := services.NewQuoteRefreshJob(assetRepo, pricingSvc, quoteRefreshTimeout)
		if err := sched.AddJob(cfg.QuoteRefreshSchedule, job); err != nil {
			log.Fatalf("Failed to schedule quote refresh: %v", err)
		}
	}
	sched.Start()

	// Initialize handlers
	portfolioHandler := handlers.NewPortfolioHandler(portfolioSvc)
	userHandler := handlers.NewUserHandler(portfolioSvc)
	assetHandler := handlers.NewAssetHandler(portfolioSvc)
	transactionHandler := handlers.NewTransactionHandler(transactionSvc)
	rebalanceHandler := handlers.NewRebalanceHandler(rebalanceSvc)
	quoteHandler := handlers.NewQuoteHandler(pricingSvc)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(), middleware.ValidateUser())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Portfolio routes
	router.POST("/portfolios", portfolioHandler.Create)
	router.GET("/portfolios/:id", portfolioHandler.Get)
	router.PUT("/portfolios/:id", portfolioHandler.Update)
	router.DELETE("/portfolios/:id", portfolioHandler.Delete)

	// Asset routes
	router.GET("/portfolios/:id/assets", assetHandler.List)
	router.POST("/portfolios/:id/assets", assetHandler.Add)
	router.POST("/portfolios/:id/assets/import", assetHandler.Import)
	router.PUT("/portfolios/:id/assets/:asset_id", assetHandler.Update)
	router.DELETE("/portfolios/:id/assets/:asset_id", assetHandler.Delete)

	// Ledger routes
	router.POST("/portfolios/:id/transactions", transactionHandler.Record)
	router.GET("/portfolios/:id/transactions", transactionHandler.List)
	router.POST("/portfolios/:id/dividends", transactionHandler.RecordDividend)
	router.GET("/portfolios/:id/dividends", transactionHandler.ListDividends)

	// Rebalance routes
	router.GET("/strategies", rebalanceHandler.Strategies)
	router.GET("/portfolios/:id/rebalance", rebalanceHandler.Rebalance)
	router.POST("/rebalance/preview", rebalanceHandler.Preview)

	router.GET("/quotes/:symbol", quoteHandler.Get)

	// User routes
	router.GET("/users/:user_id/portfolios", userHandler.ListPortfolios)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	sched.Stop()

	// Give outstanding requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if level < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
}
