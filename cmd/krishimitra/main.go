// Command krishimitra runs the farmer assistant HTTP backend.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/KrishimitraAgent/KrishimitraBackend/config"
	"github.com/KrishimitraAgent/KrishimitraBackend/docstore"
	mongostore "github.com/KrishimitraAgent/KrishimitraBackend/docstore/mongo"
	"github.com/KrishimitraAgent/KrishimitraBackend/farm"
	"github.com/KrishimitraAgent/KrishimitraBackend/farm/pricedata"
	"github.com/KrishimitraAgent/KrishimitraBackend/logging"
	"github.com/KrishimitraAgent/KrishimitraBackend/model"
	anthropicmodel "github.com/KrishimitraAgent/KrishimitraBackend/model/anthropic"
	geminimodel "github.com/KrishimitraAgent/KrishimitraBackend/model/gemini"
	openaimodel "github.com/KrishimitraAgent/KrishimitraBackend/model/openai"
	"github.com/KrishimitraAgent/KrishimitraBackend/runner"
	"github.com/KrishimitraAgent/KrishimitraBackend/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "krishimitra:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, logLevel(cfg.LogLevel), cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	routerModel, workerModel, err := buildModels(ctx, cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := buildDocStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	assistant, err := farm.NewAssistant(farm.Deps{
		RouterModel:    routerModel,
		WorkerModel:    workerModel,
		PriceSource:    pricedata.NewHTTPSource(cfg.PriceAPIBaseURL, cfg.PriceAPIKey),
		DocStore:       store,
		MoodClassifier: farm.KeywordMoodClassifier{},
	})
	if err != nil {
		return err
	}

	r := runner.New(assistant, func(o *runner.Options) {
		o.Logger = logger
		o.TurnTimeout = cfg.TurnTimeout
	})

	srv := server.New(cfg.ListenAddr, r, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		logger.Info("main.shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// buildModels constructs the routing and worker capabilities for the
// configured provider.
func buildModels(ctx context.Context, cfg *config.Config) (model.Model, model.Model, error) {
	switch cfg.Provider {
	case "gemini":
		router, err := geminimodel.NewModel(ctx, cfg.GoogleAPIKey, func(o *geminimodel.Options) {
			o.Model = cfg.RouterModel
		})
		if err != nil {
			return nil, nil, err
		}
		worker, err := geminimodel.NewModel(ctx, cfg.GoogleAPIKey, func(o *geminimodel.Options) {
			o.Model = cfg.WorkerModel
		})
		if err != nil {
			return nil, nil, err
		}
		return router, worker, nil
	case "openai":
		router := openaimodel.NewModel(func(o *openaimodel.Options) { o.Model = cfg.RouterModel })
		worker := openaimodel.NewModel(func(o *openaimodel.Options) { o.Model = cfg.WorkerModel })
		return router, worker, nil
	case "anthropic":
		router := anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.Model = anthropic.Model(cfg.RouterModel)
			o.APIKey = cfg.AnthropicAPIKey
		})
		worker := anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.Model = anthropic.Model(cfg.WorkerModel)
			o.APIKey = cfg.AnthropicAPIKey
		})
		return router, worker, nil
	case "mock":
		return model.NewMockModel(cfg.RouterModel), model.NewMockModel(cfg.WorkerModel), nil
	}
	return nil, nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
}

// buildDocStore connects MongoDB, or falls back to the in-memory store when
// MONGO_URI is set to "memory" for local development.
func buildDocStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (docstore.Store, func(), error) {
	if cfg.MongoURI == "memory" {
		logger.Warn("main.docstore.memory", "reason", "MONGO_URI=memory")
		return docstore.NewInMemoryStore(), func() {}, nil
	}
	store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("main.docstore.close", "error", err.Error())
		}
	}
	return store, closer, nil
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
