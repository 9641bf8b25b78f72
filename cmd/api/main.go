package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/jobs"
	"server/internal/providers/image"
	"server/internal/providers/prompt"
	"server/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	store, err := storage.NewFileStore(cfg.OutputDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare image storage")
	}

	gigachat := prompt.NewGigaChatClient(prompt.GigaChatOptions{
		AuthKey: cfg.GigaChatAuthKey,
		Model:   cfg.GigaChatModel,
		Scope:   cfg.GigaChatScope,
	})
	enhancer := prompt.NewEnhancer(gigachat, prompt.EnhancerOptions{
		MaxLength: cfg.EnhancerMaxLength,
		Logger:    logger,
	})

	registry := image.NewRegistry(
		image.NewProxyAPI(image.ProxyAPIOptions{
			APIKey: cfg.ProxyAPIKey,
			Model:  cfg.ProxyAPIModel,
		}, store),
		image.NewOpenRouter(image.OpenRouterOptions{
			APIKey: cfg.OpenRouterAPIKey,
			Model:  cfg.OpenRouterModel,
		}, store),
	)

	tracker := jobs.NewTracker()
	runner := jobs.NewRunner(tracker, enhancer, registry, logger)

	app := handlers.NewApp(logger, runner, tracker, store, registry.Providers())
	router := httpapi.NewRouter(app, logger, httpapi.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("output_dir", store.BasePath()).
			Strs("providers", registry.Providers()).
			Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
