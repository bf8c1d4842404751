package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hfproxy-gateway/internal/handlers"
	"hfproxy-gateway/internal/httpserver"
	"hfproxy-gateway/internal/metrics"
	"hfproxy-gateway/internal/modelmap"
	"hfproxy-gateway/internal/stats"
	"hfproxy-gateway/internal/stream"
	"hfproxy-gateway/internal/upstream"
	"hfproxy-gateway/pkg/logging/logging"
)

type Config struct {
	Port            string
	StatsBackend    string // "memory" or "redis"
	RedisAddr       string
	UpstreamBaseURL string
	UpstreamAPIKey  string
	DefaultModel    string
	ModelsFile      string
	StreamInterval  time.Duration
}

func LoadConfig() Config {
	return Config{
		Port:            getenv("PORT", "8080"),
		StatsBackend:    getenv("STATS_BACKEND", "memory"),
		RedisAddr:       getenv("REDIS_ADDR", "127.0.0.1:6379"),
		UpstreamBaseURL: getenv("UPSTREAM_BASE_URL", "https://router.huggingface.co"),
		UpstreamAPIKey:  os.Getenv("HF_API_KEY"),
		DefaultModel:    os.Getenv("DEFAULT_MODEL"),
		ModelsFile:      os.Getenv("MODELS_FILE"),
		StreamInterval:  getenvDuration("STREAM_INTERVAL_MS", stream.DefaultInterval),
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("gateway exited with error: %v", err)
	}
}

func run() error {
	// .env files are optional; real env always wins.
	_ = godotenv.Load()

	// ----- Logger -----
	logger := logging.DefaultLogger()
	defer logger.Sync()

	// ----- Metrics -----
	metrics.Register()

	// ----- Config -----
	cfg := LoadConfig()

	logger.Info("loaded config",
		zap.String("port", cfg.Port),
		zap.String("stats_backend", cfg.StatsBackend),
		zap.String("upstream_base_url", cfg.UpstreamBaseURL),
		zap.Bool("api_key_configured", cfg.UpstreamAPIKey != ""),
		zap.Duration("stream_interval", cfg.StreamInterval),
	)

	if cfg.UpstreamAPIKey == "" {
		// The server still boots; chat requests are answered with 401
		// until a key is configured.
		logger.Warn("HF_API_KEY is not set, chat completions will be rejected")
	}

	// ----- Alias table -----
	var models *modelmap.Table
	if cfg.ModelsFile != "" {
		var err error
		models, err = modelmap.Load(cfg.ModelsFile, cfg.DefaultModel)
		if err != nil {
			logger.Error("failed to load models file", zap.Error(err))
			return err
		}
		logger.Info("alias table loaded from file",
			zap.String("path", cfg.ModelsFile),
			zap.Int("aliases", len(models.Entries())),
		)
	} else {
		models = modelmap.Default(cfg.DefaultModel)
	}

	// ----- Redis client (only if needed) -----
	var redisClient *redis.Client
	if cfg.StatsBackend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
	}

	// ----- Stats store -----
	statsStore := stats.NewStore(stats.Config{
		Backend: cfg.StatsBackend,
		Prefix:  "hfproxy",
	}, redisClient)

	// Fail fast if Redis is misconfigured
	if redisStore, ok := statsStore.(*stats.RedisStore); ok {
		if err := redisStore.Ping(context.Background()); err != nil {
			logger.Error("redis connection failed", zap.Error(err))
			return err
		}
		logger.Info("redis connection established",
			zap.String("addr", cfg.RedisAddr),
		)
	}

	// ----- Upstream client -----
	upstreamClient, err := upstream.NewClient(upstream.Config{
		BaseURL: cfg.UpstreamBaseURL,
		APIKey:  cfg.UpstreamAPIKey,
	}, logger)
	if err != nil {
		return err
	}

	// ----- Handlers -----
	emitter := stream.NewEmitter(cfg.StreamInterval, logger)
	chatHandler := handlers.NewChatHandler(upstreamClient, models, emitter, statsStore)
	modelsHandler := handlers.NewModelsHandler(models)
	systemHandler := handlers.NewSystemHandler(statsStore)

	// ----- Router + middleware -----
	r := chi.NewRouter()
	httpserver.SetupRouter(r, logger, chatHandler, modelsHandler, systemHandler)

	// ----- HTTP server -----
	// WriteTimeout stays 0: streamed completions are paced and can exceed
	// any fixed deadline.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting gateway",
		zap.String("addr", srv.Addr),
		zap.String("default_model", models.DefaultModel()),
	)

	// Start server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// ----- Graceful shutdown -----
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}

// getenv returns the value of the environment variable key or def if not set.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvDuration reads a millisecond count from the environment.
func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
