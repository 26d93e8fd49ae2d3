package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/config"
	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/handlers"
	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/logger"
	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/middleware"
	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/services"
	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/services/events"
	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/services/queue"
	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/storage"
	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/worker"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/resolution"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Keeper API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName)

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.GameStateTTL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	catalog, err := storage.LoadCatalog(cfg.DataDir, cfg.ShortActionCap, log)
	if err != nil {
		log.Error("Failed to load scenario catalog", "error", err, "data_dir", cfg.DataDir)
		os.Exit(1)
	}

	health := map[string]handlers.Pinger{"storage": store}

	var recorder resolution.Recorder
	var archive *storage.Archive
	if cfg.ArchivePath != "" {
		archive, err = storage.OpenArchive(cfg.ArchivePath)
		if err != nil {
			log.Error("Failed to open action archive", "error", err, "path", cfg.ArchivePath)
			os.Exit(1)
		}
		recorder = archive
		health["archive"] = archive
		log.Info("Action archive enabled", "path", cfg.ArchivePath)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(reg)

	deps, err := worker.DepsFromConfig(cfg, catalog, recorder, metrics, log)
	if err != nil {
		log.Error("Failed to create collaborators", "error", err)
		os.Exit(1)
	}
	// Sync turns take the same per-game lock as the workers.
	lockOwner := fmt.Sprintf("api-%s", uuid.New().String()[:8])
	processor := worker.NewTurnProcessor(store, worker.NewKeeper(deps, log), log).
		WithLock(worker.NewGameLock(store.Client(), lockOwner, worker.DefaultLockTTL))

	queueClient := queue.NewClientWithRedis(store.Client(), log)
	turnQueue := queue.NewTurnQueue(queueClient)
	broadcaster := events.NewBroadcaster(store.Client(), log)

	mux := http.NewServeMux()
	mux.Handle("GET /health", handlers.NewHealthHandler(health, log))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	gameStateHandler := handlers.NewGameStateHandler(store, catalog, log)
	if archive != nil {
		gameStateHandler = gameStateHandler.WithArchive(archive)
	}
	gameStateHandler.Register(mux)
	handlers.NewTurnHandler(store, processor, turnQueue, log).WithNotifier(broadcaster).Register(mux)
	handlers.NewEventsHandler(store.Client(), log).Register(mux)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, mux),
		ReadTimeout: 15 * time.Second,
		// WriteTimeout left unset for SSE and synchronous turns
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr, "scenarios", len(catalog.List()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if archive != nil {
		if err := archive.Close(); err != nil {
			log.Error("Error closing action archive", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
