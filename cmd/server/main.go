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

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"neologe/internal/api"
	"neologe/internal/auth"
	"neologe/internal/config"
	"neologe/internal/core"
	"neologe/internal/provider"
	"neologe/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapConfig := zap.NewProductionConfig()
	if cfg.LogLevel == "DEBUG" {
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer dbStore.Close()

	ctx := context.Background()

	openaiClient := provider.NewOpenAIClient(cfg.OpenAIAPIKey, logger)
	anthropicClient := provider.NewAnthropicClient(cfg.AnthropicAPIKey, logger)
	googleClient, err := provider.NewGoogleClient(ctx, cfg.GoogleAPIKey, logger)
	if err != nil {
		logger.Fatal("failed to initialize Google provider", zap.Error(err))
	}
	defer googleClient.Close()

	registry := provider.NewRegistry(logger, openaiClient, anthropicClient, googleClient)

	var evaluator core.Evaluator
	switch cfg.EvaluatorPolicy {
	case config.PolicyArbiter:
		evaluator = core.NewArbiterEvaluator(openaiClient)
	default:
		evaluator = core.HeuristicEvaluator{}
	}
	logger.Info("conflict evaluator configured",
		zap.String("policy", string(cfg.EvaluatorPolicy)),
		zap.Strings("providers", registry.Names()))

	service := core.NewNeologismService(dbStore, registry, evaluator, logger)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret)
	apiHandler := api.NewAPIHandler(service, tokens, logger)
	router := api.NewRouter(apiHandler, logger)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", serverAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not listen", zap.String("addr", serverAddr), zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting gracefully")
}
