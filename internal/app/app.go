// Package app provides the application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes the operational
// modes:
//
//   - Serve mode: webhook endpoint, processing pipelines, pending-DM sweep
//   - Chat mode: offline terminal QA session against the real pipeline
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/page-engage-bot/internal/config"
	"github.com/lueurxax/page-engage-bot/internal/intent"
	"github.com/lueurxax/page-engage-bot/internal/messenger"
	"github.com/lueurxax/page-engage-bot/internal/metaapi"
	"github.com/lueurxax/page-engage-bot/internal/moderation"
	"github.com/lueurxax/page-engage-bot/internal/observability"
	db "github.com/lueurxax/page-engage-bot/internal/storage"
	"github.com/lueurxax/page-engage-bot/internal/webhook"
)

// App holds the application dependencies and provides methods to run
// different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunServe runs the webhook service: the HTTP ingest endpoint, the event
// pipelines behind it, and the pending-DM backlog sweep.
func (a *App) RunServe(ctx context.Context) error {
	a.logger.Info().Msg("Starting serve mode")

	apiClient, err := metaapi.NewClient(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("graph api client init: %w", err)
	}

	classifier := intent.New(a.cfg, a.logger)
	gateway := messenger.New(apiClient, a.cfg.PageID, a.logger)
	moderator := moderation.New(a.cfg.HarmfulKeywords, apiClient, a.logger)

	comments := webhook.NewCommentPipeline(a.database, classifier, gateway, moderator, a.logger)
	chats := webhook.NewChatPipeline(a.database, gateway, classifier, a.cfg.PageID, a.cfg.ChatHistoryLimit, a.logger)
	dispatcher := webhook.NewDispatcher(a.cfg, comments, chats, a.logger)

	go func() {
		if err := webhook.RunPendingSweep(ctx, a.database, a.cfg.PendingSweepInterval, a.logger); err != nil && ctx.Err() == nil {
			a.logger.Error().Err(err).Msg("pending sweep stopped")
		}
	}()

	return webhook.NewServer(a.cfg, dispatcher, a.logger).Start(ctx)
}
