package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpapi "lookbook/internal/http"
	"lookbook/internal/http/handlers"
	"lookbook/internal/imaging"
	"lookbook/internal/infra"
	"lookbook/internal/providers/preview"
	"lookbook/internal/providers/shopping"
	"lookbook/internal/providers/stylist"
	"lookbook/internal/providers/video"
	"lookbook/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	httpClient := infra.NewHTTPClient(cfg.HTTPWriteTimeout)

	var debugStore *storage.FileStore
	if cfg.MergeDebugDir != "" {
		debugStore, err = storage.NewFileStore(cfg.MergeDebugDir)
		if err != nil {
			logger.Warn().Err(err).Str("dir", cfg.MergeDebugDir).Msg("merge debug dir unavailable, dumps disabled")
		}
	}

	merger := imaging.NewMerger(imaging.NewFetcher(httpClient), logger, debugStore)

	stylistClient := stylist.NewClient(stylist.Options{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.OpenAIModel,
		BaseURL:    cfg.OpenAIBaseURL,
		HTTPClient: httpClient,
	})
	shopClient := shopping.NewClient(shopping.Options{
		APIKey:     cfg.SerpAPIKey,
		BaseURL:    cfg.SerpAPIBaseURL,
		HTTPClient: httpClient,
		Logger:     logger,
	})
	geminiClient := preview.NewGeminiClient(preview.GeminiOptions{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.GeminiModel,
		BaseURL:    cfg.GeminiBaseURL,
		HTTPClient: httpClient,
	})
	videoClient := video.NewClient(video.Options{
		APIKey:          cfg.RunwayAPIKey,
		BaseURL:         cfg.RunwayAPIBaseURL,
		HTTPClient:      httpClient,
		Logger:          logger,
		MaxPayloadBytes: cfg.MaxVideoImageBytes,
	})

	app := &handlers.App{
		Stylist:        stylistClient,
		Shops:          shopClient,
		Preview:        preview.NewGenerator(merger, geminiClient, logger),
		Video:          videoClient,
		Merger:         merger,
		Log:            logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
		MergeEnabled:   cfg.EnableMergeRoute,
	}

	router := httpapi.NewRouter(cfg, logger, app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
