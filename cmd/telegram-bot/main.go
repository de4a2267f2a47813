package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"kitchen-ai/internal/config"
	"kitchen-ai/internal/database"
	"kitchen-ai/internal/history"
	"kitchen-ai/internal/llm"
	"kitchen-ai/internal/logger"
	"kitchen-ai/internal/metrics"
	"kitchen-ai/internal/planner"
	"kitchen-ai/internal/session"
	"kitchen-ai/internal/telegram"
	"kitchen-ai/internal/workflow"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const sessionCleanupInterval = 6 * time.Hour

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireLLM(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Infrastructure
	textGen, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		zl.Fatal("Failed to create LLM client", zap.Error(err))
	}
	defer textGen.Close()

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		zl.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	metricsStore := metrics.NewStore(db.SQL)
	recorder := metrics.NewRecorder(metricsStore, metrics.NewCollector(reg))
	sessions := session.NewRepository(db.SQL, cfg.Session.TTL)
	hist := history.NewRepository(db.SQL)

	// 3. Initialize Services
	mealPlanner := planner.NewPlanner(textGen, zl, planner.Options{
		Timeout:  cfg.LLM.Timeout,
		Recorder: recorder,
	})
	engine := workflow.NewEngine(mealPlanner, sessions, hist, zl, workflow.Options{
		MaxMealsPerDay:  cfg.Planner.MaxMealsPerDay,
		TitleDateLayout: cfg.Planner.TitleDateLayout,
	})

	// 4. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, engine, hist, metricsStore, zl)
	if err != nil {
		zl.Fatal("Failed to initialize Telegram Bot", zap.Error(err))
	}

	go cleanupSessions(ctx, sessions, engine, cfg.Session.TTL, zl)

	// 5. Start Server with Graceful Shutdown
	mux := http.NewServeMux()
	bot.RegisterHandlers(mux, reg)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("Telegram Bot Server listening", zap.String("port", cfg.HTTP.Port), zap.String("data", filepath.Dir(cfg.Database.Path)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	zl.Info("Server exiting")
}

// cleanupSessions drops sessions idle longer than ttl, from memory and
// from the store.
func cleanupSessions(ctx context.Context, sessions *session.Repository, engine *workflow.Engine, ttl time.Duration, zl *zap.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := engine.EvictIdle(ttl); evicted > 0 {
				zl.Debug("Idle sessions evicted from memory", zap.Int("count", evicted))
			}
			n, err := sessions.CleanupExpired(ctx)
			if err != nil {
				zl.Warn("Failed to clean up sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				zl.Info("Expired sessions removed", zap.Int64("count", n))
			}
		}
	}
}
