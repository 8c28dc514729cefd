package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"wasfa/internal/ai"
	"wasfa/internal/config"
	"wasfa/internal/db"
	"wasfa/internal/db/mock"
	"wasfa/internal/handlers"
	applog "wasfa/internal/log"
	"wasfa/internal/server"
)

// serverLifecycle is the slice of *server.Server that run depends on.
type serverLifecycle interface {
	Start() error
	Stop() error
}

// Seams for testing.
var (
	loadDotenvFunc      = godotenv.Load
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Configure
	newAIClientFunc     = func(cfg ai.Config) (handlers.RecipeSuggester, error) {
		return ai.NewClient(cfg)
	}
	newServerFunc = func(cfg config.Config, database *gorm.DB, suggester handlers.RecipeSuggester) (serverLifecycle, error) {
		return server.New(cfg, database, suggester)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		return sigCh, func() { signal.Stop(sigCh) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	if err := loadDotenvFunc(); err != nil && !os.IsNotExist(err) {
		applog.Warn(ctx, "could not load .env file", "error", err)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if err := setLogLevelFunc(level); err != nil {
			applog.Error(ctx, "invalid LOG_LEVEL", "error", err)
			return 1
		}
	}

	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "invalid configuration", "error", err)
		return 1
	}

	var database *gorm.DB
	if cfg.Database.UseMock {
		applog.Info(ctx, "using seeded in-memory database")
		database, err = newMockDatabaseFunc(ctx)
	} else {
		database, err = configureDatabase(cfg.Database)
	}
	if err != nil {
		applog.Error(ctx, "failed to initialise database", "error", err)
		return 1
	}

	var suggester handlers.RecipeSuggester
	if cfg.AI.APIKey != "" {
		suggester, err = newAIClientFunc(ai.Config{
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			BaseURL:     cfg.AI.BaseURL,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
		})
		if err != nil {
			applog.Error(ctx, "failed to initialise ai client", "error", err)
			return 1
		}
	} else {
		applog.Warn(ctx, "OPENAI_API_KEY not set, ai suggestions disabled")
	}

	srv, err := newServerFunc(cfg, database, suggester)
	if err != nil {
		applog.Error(ctx, "failed to initialise server", "error", err)
		return 1
	}

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	sigCh, unsubscribe := subscribeShutdownSig()
	defer unsubscribe()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case <-sigCh:
		applog.Info(ctx, "shutting down http server")
		if err := srv.Stop(); err != nil {
			applog.Error(ctx, "graceful shutdown failed", "error", err)
			return 1
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	}
}
