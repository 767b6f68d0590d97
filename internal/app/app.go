// Package app wires the application together: configuration, logging,
// local persistence, the notification ledger, the submission client,
// the push-channel manager and the generation orchestrator.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/wordgen/internal/adapter/localstore"
	"github.com/heartmarshall/wordgen/internal/adapter/pipeline"
	"github.com/heartmarshall/wordgen/internal/config"
	"github.com/heartmarshall/wordgen/internal/notify"
	"github.com/heartmarshall/wordgen/internal/service/generation"
	"github.com/heartmarshall/wordgen/internal/stream"
)

// App holds the wired application graph.
type App struct {
	Config        *config.Config
	Log           *slog.Logger
	Store         *localstore.Store
	Notifications *notify.Store
	Stream        *stream.Manager
	Generation    *generation.Service
}

// New builds the application from configuration. The persisted
// notification ledger is restored before the app is returned.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	store, err := localstore.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	notifications, err := notify.NewStore(cfg.Store.Capacity, store, logger,
		notify.WithTTL(cfg.Store.TTL))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create notification store: %w", err)
	}
	notifications.Load(ctx)

	client := pipeline.NewClient(cfg.Pipeline.BaseURL, cfg.Pipeline.Timeout, cfg.Pipeline.MaxRetries, logger)
	manager := stream.NewManager(client, stream.WebsocketDialer{BaseURL: cfg.Stream.URL}, logger,
		stream.WithCloseGrace(cfg.Stream.CloseGrace))
	svc := generation.NewService(manager, notifications, store, logger)

	return &App{
		Config:        cfg,
		Log:           logger,
		Store:         store,
		Notifications: notifications,
		Stream:        manager,
		Generation:    svc,
	}, nil
}

// Close tears down the push channel and the local store.
func (a *App) Close() error {
	a.Generation.Close()
	return a.Store.Close()
}
