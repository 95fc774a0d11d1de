package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"lotto-backend/internal/auth"
	"lotto-backend/internal/cache"
	"lotto-backend/internal/config"
	"lotto-backend/internal/database"
	"lotto-backend/internal/db"
	"lotto-backend/internal/gl"
	"lotto-backend/internal/handlers"
	"lotto-backend/internal/health"
	h "lotto-backend/internal/http"
	"lotto-backend/internal/middleware"
	"lotto-backend/internal/monitoring"
	"lotto-backend/internal/repositories"
	"lotto-backend/internal/services"

	"github.com/shopspring/decimal"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	// Load configuration
	cfg := config.Load()
	logger := config.GetLogger()

	if *port != 0 {
		cfg.Server.Port = *port
	}

	pool := db.Connect(cfg)
	defer pool.Close()

	// Initialize Redis cache (optional - graceful fallback if unavailable)
	if err := cache.Init(); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (previews will always recompute)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}

	// Run database migrations
	// This automatically creates all required tables on startup
	log.Println("Running database migrations...")
	migrator := database.NewMigrator(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize health checker
	healthChecker := health.NewHealthChecker(pool)

	// Start monitoring dashboard server in background
	go monitoring.NewMonitoringServer(pool, 9090).Start()

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg)

	// Initialize repositories
	gameRepo := repositories.NewGameRepository(pool)
	boxRepo := repositories.NewBoxRepository(pool)
	packRepo := repositories.NewPackRepository(pool)
	readingRepo := repositories.NewReadingRepository(pool)
	anomalyRepo := repositories.NewAnomalyRepository(pool)
	drawDayRepo := repositories.NewDrawDayRepository(pool)
	dayCloseRepo := repositories.NewDayCloseRepository(pool)
	postingRepo := repositories.NewPostingRepository(pool)

	// GL sink: archive to the configured bucket, otherwise log only
	var sink gl.Sink = &gl.LogSink{Logger: logger}
	if cfg.Archive.Enabled {
		s3Sink, err := gl.NewS3Sink(context.Background(),
			cfg.Archive.Endpoint, cfg.Archive.Region,
			cfg.Archive.AccessKey, cfg.Archive.SecretKey, cfg.Archive.Bucket)
		if err != nil {
			log.Printf("[Archive] Disabled: %v", err)
		} else {
			sink = s3Sink
			log.Println("[Archive] Posting batches will be archived")
		}
	}

	drawRate, err := decimal.NewFromString(cfg.Recon.DrawCommissionRate)
	if err != nil {
		log.Fatalf("invalid recon.draw_commission_rate %q: %v", cfg.Recon.DrawCommissionRate, err)
	}

	// Initialize services
	gameService := services.NewGameService(gameRepo)
	boxService := services.NewBoxService(boxRepo)
	packService := services.NewPackService(packRepo, boxRepo, gameRepo, logger)
	readingService := services.NewReadingService(readingRepo, boxRepo, packService, cfg.Recon.SkipThreshold, logger)
	anomalyService := services.NewAnomalyService(anomalyRepo, logger)
	dayCloseService := services.NewDayCloseService(dayCloseRepo, drawDayRepo, anomalyRepo,
		drawRate, cfg.Recon.DrawOptionalStores, logger)
	postingService := services.NewPostingService(postingRepo, dayCloseService, sink, logger)

	// Initialize middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)
	corsMiddleware := middleware.NewCORS(cfg)

	router := h.NewRouter(
		handlers.NewGameHandler(gameService),
		handlers.NewBoxHandler(boxService),
		handlers.NewPackHandler(packService),
		handlers.NewReadingHandler(readingService),
		handlers.NewAnomalyHandler(anomalyService),
		handlers.NewDayCloseHandler(dayCloseService),
		handlers.NewPostingHandler(postingService),
		handlers.NewHealthHandler(healthChecker),
		authMiddleware,
	)

	// Wrap with panic recovery, request logging and metrics middleware
	handler := middleware.PanicRecovery(
		middleware.MetricsMiddleware(
			middleware.RequestLogging(logger)(
				corsMiddleware(router))))

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
