package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/config"
	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/logger"
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

	log.Info("Starting Keeper Worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL,
		"llm_provider", cfg.LLMProvider)

	// Initialize storage service
	store := storage.NewRedisStorage(cfg.RedisURL, cfg.GameStateTTL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing storage connection", "error", err)
		}
	}()
	log.Info("Storage service initialized successfully")

	catalog, err := storage.LoadCatalog(cfg.DataDir, cfg.ShortActionCap, log)
	if err != nil {
		log.Error("Failed to load scenario catalog", "error", err, "data_dir", cfg.DataDir)
		os.Exit(1)
	}

	var recorder resolution.Recorder
	if cfg.ArchivePath != "" {
		archive, err := storage.OpenArchive(cfg.ArchivePath)
		if err != nil {
			log.Error("Failed to open action archive", "error", err, "path", cfg.ArchivePath)
			os.Exit(1)
		}
		defer func() {
			if err := archive.Close(); err != nil {
				log.Error("Error closing action archive", "error", err)
			}
		}()
		recorder = archive
	}

	// Metrics are collected in-process; the API exposes its own registry
	metrics := services.NewMetrics(prometheus.DefaultRegisterer)
	deps, err := worker.DepsFromConfig(cfg, catalog, recorder, metrics, log)
	if err != nil {
		log.Error("Failed to create collaborators", "error", err)
		os.Exit(1)
	}
	processor := worker.NewTurnProcessor(store, worker.NewKeeper(deps, log), log)
	log.Info("Turn processor initialized successfully", "scenarios", len(catalog.List()))

	turnQueue := queue.NewTurnQueue(queue.NewClientWithRedis(store.Client(), log))
	broadcaster := events.NewBroadcaster(store.Client(), log)

	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	lock := worker.NewGameLock(store.Client(), workerID, worker.DefaultLockTTL)
	w := worker.New(turnQueue, processor, broadcaster, lock, log, workerID)

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
		}
	}()

	log.Info("Worker started, waiting for requests...")

	<-quit
	log.Info("Worker shutdown signal received")
	w.Stop()

	// Give worker time to finish current request
	select {
	case <-done:
	case <-time.After(worker.TurnTimeout):
		log.Warn("Worker did not finish in time")
	}

	log.Info("Worker exited")
}
