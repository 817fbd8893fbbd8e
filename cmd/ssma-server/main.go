package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/ssma-incidents/internal/api"
	"github.com/mr1hm/ssma-incidents/internal/auth"
	"github.com/mr1hm/ssma-incidents/internal/config"
	"github.com/mr1hm/ssma-incidents/internal/logging"
	"github.com/mr1hm/ssma-incidents/internal/observability"
	"github.com/mr1hm/ssma-incidents/internal/repository"
	"github.com/mr1hm/ssma-incidents/internal/stream"
	"github.com/mr1hm/ssma-incidents/internal/weather"
)

const sessionSweepInterval = 5 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	if dir := filepath.Dir(cfg.DB.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logging.Fatalf("Failed to create data directory: %v", err)
		}
	}

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	created, err := auth.Seed(ctx, db, cfg.Auth.DefaultUser, cfg.Auth.DefaultPassword)
	if err != nil {
		logging.Fatalf("Failed to seed default user: %v", err)
	}
	if created {
		slog.Info("default user created", "username", cfg.Auth.DefaultUser)
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	clock := clockwork.NewRealClock()

	// Weather panel
	var (
		forecasts api.Forecaster
		refresher *weather.Refresher
	)
	if cfg.Weather.Enabled {
		loc, err := time.LoadLocation(cfg.Weather.Timezone)
		if err != nil {
			logging.Fatalf("Invalid weather timezone: %v", err)
		}
		client := weather.NewClient(cfg.Weather.URL, cfg.Weather.Timezone, cfg.Weather.Timeout)
		svc := weather.NewService(client, loc, cfg.Weather.Timeout, cfg.Weather.CacheTTL, clock, metrics)
		forecasts = svc

		refresher = weather.NewRefresher(svc, cfg.Weather.Sites, cfg.Weather.RefreshInterval, cfg.Worker)
		refresher.Start(ctx)
	}

	sessions := auth.NewSessionStore(cfg.Auth.SessionTTL, clock)
	go sessions.RunSweeper(ctx, sessionSweepInterval)
	authn := auth.NewAuthenticator(db, sessions)

	// Live incident feed for reviewers
	broadcaster := stream.NewBroadcaster()

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler := api.NewHandler(cfg, db, authn, forecasts, broadcaster, metrics)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	if refresher != nil {
		refresher.Stop()
	}
	broadcaster.Close() // Ends open SSE streams

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
