package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hkacem/microquote/internal/config"
	"github.com/hkacem/microquote/internal/database"
	"github.com/hkacem/microquote/internal/modules/geo"
	"github.com/hkacem/microquote/internal/modules/pricing"
	"github.com/hkacem/microquote/internal/modules/products"
	"github.com/hkacem/microquote/internal/modules/quotes"
	"github.com/hkacem/microquote/internal/modules/risk"
	"github.com/hkacem/microquote/internal/modules/selection"
	"github.com/hkacem/microquote/internal/scheduler"
	"github.com/hkacem/microquote/internal/server"
	"github.com/hkacem/microquote/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting microquote")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Initialize schemas
	if err := quotes.InitSchema(db.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize quotes schema")
	}
	if err := geo.InitSchema(db.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize geo schema")
	}

	// Product catalogue
	catalog := products.NewCatalog()
	if err := catalog.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid product catalogue")
	}

	// Pricing configuration
	pricingCfg, err := pricing.LoadConfig(cfg.PricingConfigPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load pricing configuration")
	}

	// Wire up the quoting pipeline
	geoRepo := geo.NewRepository(db.Conn(), log)
	resolver := geo.NewResolver(geoRepo, log)
	riskService := risk.NewService(cfg.ArtifactsDir, log)
	selector := selection.NewEngine(catalog, log)
	pricer := pricing.NewEngine(pricingCfg, log)

	quoteRepo := quotes.NewRepository(db.Conn(), log)
	quoteService := quotes.NewService(riskService, resolver, selector, pricer, catalog, log)
	quoteHandler := quotes.NewHandler(quoteRepo, quoteService, log)

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	// Register background jobs
	if err := registerJobs(sched, log, db, quoteRepo, cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:          cfg.Port,
		Log:           log,
		Config:        cfg,
		QuotesHandler: quoteHandler,
		QuotesRepo:    quoteRepo,
		DevMode:       cfg.DevMode,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func registerJobs(sched *scheduler.Scheduler, log zerolog.Logger, db *database.DB, repo *quotes.Repository, cfg *config.Config) error {
	// Daily sweep of abandoned pending requests (03:15 UTC)
	staleJob := scheduler.NewStaleQuotesJob(log, repo, cfg.StaleQuoteDays)
	if err := sched.AddJob("0 15 3 * * *", staleJob); err != nil {
		return err
	}

	// Database integrity check every 6 hours, plus one pass at startup
	healthJob := scheduler.NewHealthCheckJob(log, db)
	if err := sched.AddJob("0 0 */6 * * *", healthJob); err != nil {
		return err
	}

	return sched.RunNow(healthJob)
}
