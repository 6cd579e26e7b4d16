// Command wildlife runs the farm camera watcher: it polls a frame directory,
// classifies frames for dangerous animals and records detections and alerts.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KrishimitraAgent/KrishimitraBackend/config"
	"github.com/KrishimitraAgent/KrishimitraBackend/docstore"
	mongostore "github.com/KrishimitraAgent/KrishimitraBackend/docstore/mongo"
	"github.com/KrishimitraAgent/KrishimitraBackend/logging"
	"github.com/KrishimitraAgent/KrishimitraBackend/model"
	geminimodel "github.com/KrishimitraAgent/KrishimitraBackend/model/gemini"
	"github.com/KrishimitraAgent/KrishimitraBackend/wildlife"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "wildlife:", err)
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

	visionModel, decisionModel, err := buildModels(ctx, cfg)
	if err != nil {
		return err
	}

	var store docstore.Store
	if cfg.MongoURI == "memory" {
		logger.Warn("main.docstore.memory", "reason", "MONGO_URI=memory")
		store = docstore.NewInMemoryStore()
	} else {
		ms, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ms.Close(closeCtx)
		}()
		store = ms
	}

	watcher := wildlife.NewWatcher(visionModel, decisionModel, store, cfg.WildlifeFrameDir,
		func(o *wildlife.Options) {
			o.Interval = cfg.WildlifePollInterval
			o.Logger = logger
		})

	return watcher.Run(ctx)
}

// buildModels constructs the vision and decision capabilities. The watcher
// needs image input, so only Gemini and the mock provider are supported.
func buildModels(ctx context.Context, cfg *config.Config) (model.Model, model.Model, error) {
	switch cfg.Provider {
	case "gemini":
		vision, err := geminimodel.NewModel(ctx, cfg.GoogleAPIKey, func(o *geminimodel.Options) {
			o.Model = cfg.WorkerModel
		})
		if err != nil {
			return nil, nil, err
		}
		decision, err := geminimodel.NewModel(ctx, cfg.GoogleAPIKey, func(o *geminimodel.Options) {
			o.Model = cfg.RouterModel
		})
		if err != nil {
			return nil, nil, err
		}
		return vision, decision, nil
	case "mock":
		return model.NewMockModel(cfg.WorkerModel), model.NewMockModel(cfg.RouterModel), nil
	}
	return nil, nil, fmt.Errorf("wildlife watcher requires the gemini or mock provider, got %q", cfg.Provider)
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
