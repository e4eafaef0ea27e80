package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ali-aktas/hocalingo/internal/api"
	"github.com/ali-aktas/hocalingo/internal/config"
	"github.com/ali-aktas/hocalingo/internal/domain/srs"
	"github.com/ali-aktas/hocalingo/internal/events"
	"github.com/ali-aktas/hocalingo/internal/platform/postgres"
	"github.com/ali-aktas/hocalingo/internal/service/auth"
	"github.com/ali-aktas/hocalingo/internal/store"
	"github.com/google/uuid"
)

// application holds the server's wired dependencies.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	jwtService   auth.JWTService
	srsEngine    srs.Engine
	eventEmitter *events.InMemoryEmitter

	studyHandler     *api.StudyHandler
	selectionHandler *api.SelectionHandler
}

// newApplication creates a new application instance with all
// dependencies initialized. Configuration, logging and the database
// connection must already be established.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMins)

	app.srsEngine = srs.NewDefaultEngine()
	app.eventEmitter = events.NewInMemoryEmitter(logger)

	progressFor := func(userID uuid.UUID) store.ProgressStore {
		return postgres.NewPostgresProgressStore(db, userID, logger)
	}
	ledgerFor := func(userID uuid.UUID) store.SessionLedger {
		return postgres.NewPostgresSessionLedger(db, userID, logger)
	}
	selectionsFor := func(userID uuid.UUID) store.SelectionStore {
		return postgres.NewPostgresSelectionStore(db, userID, logger)
	}

	// nil hook: checkpoints follow the study.pause_at_checkpoints setting.
	app.studyHandler = api.NewStudyHandler(
		progressFor,
		ledgerFor,
		app.srsEngine,
		nil,
		app.eventEmitter,
		cfg.Study,
		logger,
	)

	app.selectionHandler = api.NewSelectionHandler(
		selectionsFor,
		progressFor,
		app.eventEmitter,
		cfg.Quota,
		logger,
	)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
