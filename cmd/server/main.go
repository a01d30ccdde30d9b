package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/prudhvinik1/crmsync/internal/config"
	"github.com/prudhvinik1/crmsync/internal/database"
	"github.com/prudhvinik1/crmsync/internal/hubspot"
	"github.com/prudhvinik1/crmsync/internal/logger"
	"github.com/prudhvinik1/crmsync/internal/repositories"
	"github.com/prudhvinik1/crmsync/internal/services"
	"github.com/prudhvinik1/crmsync/internal/worker"
)

func main() {
	ctx := context.Background()

	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(os.Getenv("LOG_ENV"))
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync()

	// Initialize database connections
	postgresPool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create postgres pool: %v", err)
	}
	defer postgresPool.Close()

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to create redis client: %v", err)
	}
	defer redisClient.Close()

	domainRepo := repositories.NewPostgresDomainRepository(postgresPool)
	actionRepo := repositories.NewPostgresActionRepository(postgresPool)
	runRepo := repositories.NewRedisSyncRunRepository(redisClient)

	hubspotClient := hubspot.NewClient(cfg.HubspotBaseURL)
	syncWorker := worker.New(hubspotClient, domainRepo, actionRepo, cfg.Sync,
		cfg.HubspotClientID, cfg.HubspotClientSecret, zlog)
	syncService := services.NewSyncService(syncWorker, runRepo, zlog)

	// Schedule the daily pull (midnight by default)
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.SyncSchedule, func() {
		if err := syncService.RunOnce(context.Background()); err != nil {
			zlog.Error("scheduled sync failed", zap.Error(err))
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule sync: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize HTTP Server
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	router.Get("/sync/status", func(w http.ResponseWriter, r *http.Request) {
		run, err := syncService.LastRun(r.Context())
		if errors.Is(err, repositories.ErrNotFound) {
			http.Error(w, "no sync runs recorded", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "failed to load sync status", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(run)
	})

	router.Get("/actions", func(w http.ResponseWriter, r *http.Request) {
		start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
		if err != nil {
			http.Error(w, "invalid start time, expected RFC3339", http.StatusBadRequest)
			return
		}
		end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
		if err != nil {
			http.Error(w, "invalid end time, expected RFC3339", http.StatusBadRequest)
			return
		}

		actions, err := actionRepo.GetByDateRange(r.Context(), start, end, r.URL.Query().Get("type"))
		if err != nil {
			http.Error(w, "failed to load actions", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(actions)
	})

	router.Post("/sync/run", func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		subject, err := services.VerifyTriggerToken(token, cfg.JWTSecret)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if syncService.Running() {
			http.Error(w, "sync already in progress", http.StatusConflict)
			return
		}

		zlog.Info("manual sync triggered", zap.String("triggered_by", subject))
		go func() {
			if err := syncService.RunOnce(context.Background()); err != nil &&
				!errors.Is(err, services.ErrSyncInProgress) {
				zlog.Error("manual sync failed", zap.Error(err))
			}
		}()
		w.WriteHeader(http.StatusAccepted)
	})

	// Start Server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	// graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		zlog.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	zlog.Info("starting server", zap.String("port", cfg.ServerPort))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	zlog.Info("server stopped gracefully")
}
