// cmd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"go_4_review_keep/internal/config"
	"go_4_review_keep/internal/handlers"
	"go_4_review_keep/internal/repository"
	"go_4_review_keep/internal/service"
)

func main() {
	// 設定ファイル読み込み用の一時的なロガー設定
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)
	log.Println("Log Config Loading...")

	configDir := os.Getenv("APP_CONFIG_DIR")
	if configDir == "" {
		configDir = "configs"
	}
	if err := config.LoadConfig(configDir); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := newLogger(config.Cfg.Log.Level, os.Getenv("APP_ENV"), tempLogger)
	log.Println("Log Config Loaded...")
	slog.SetDefault(logger)

	slog.Info("Application starting...", slog.String("app", config.AppName), slog.String("version", config.AppVersion))

	// 1. Document store
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	blobs, closeStore, err := repository.NewBlobStore(initCtx, &config.Cfg, logger)
	initCancel()
	if err != nil {
		slog.Error("Error initializing document store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := closeStore(); err != nil {
			slog.Error("Error closing document store", slog.Any("error", err))
		} else {
			slog.Info("Document store closed.")
		}
	}()

	policy, err := repository.ParseWritePolicy(config.Cfg.Store.WritePolicy)
	if err != nil {
		slog.Error("Invalid write policy", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("Write policy configured", slog.String("policy", string(policy)), slog.Int("conflict_retries", config.Cfg.Store.ConflictRetries))

	// 2. Dependency Injection
	reviewRepo := repository.NewReviewRepository(blobs, config.Cfg.Store.ReviewDocument, policy)
	progressRepo := repository.NewProgressRepository(blobs, config.Cfg.Store.ProgressDocument, policy)

	reviewService := service.NewReviewService(reviewRepo, &config.Cfg)
	progressService := service.NewProgressService(progressRepo, &config.Cfg)

	reviewHandler := handlers.NewReviewHandler(reviewService, logger)
	progressHandler := handlers.NewProgressHandler(progressService, logger)
	healthHandler := handlers.NewHealthHandler(blobs)

	// 3. Router
	r := handlers.NewRouter(&config.Cfg, logger, reviewHandler, progressHandler, healthHandler)

	// 4. Start Server
	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  config.Cfg.Server.ReadTimeout,
		WriteTimeout: config.Cfg.Server.WriteTimeout,
		IdleTimeout:  config.Cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port), slog.String("base_path", config.Cfg.Server.BasePath))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}

// newLogger は設定のログレベルと APP_ENV からロガーを作ります。
// APP_ENV=dev のときは tint、それ以外は JSON で出力します。
func newLogger(level, appEnv string, tempLogger *slog.Logger) *slog.Logger {
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo) // 不明な場合はInfo
		tempLogger.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", level))
	}

	var handler slog.Handler
	if strings.ToLower(appEnv) == "dev" {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		})
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	return slog.New(handler)
}
