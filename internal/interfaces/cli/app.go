package cli

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/uspto-tools/pairwatch/internal/application/poller"
	"github.com/uspto-tools/pairwatch/internal/application/refresh"
	"github.com/uspto-tools/pairwatch/internal/config"
	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/database/sqlite"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/database/sqlite/repositories"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/logging"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/prometheus"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/secrets"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/uspto"
)

// App bundles the wired application: configuration, store, upstream client,
// and the services every command works through.  Commands receive it fully
// constructed; tests build one around an in-memory database.
type App struct {
	Config *config.Config
	// ConfigFile is the file the configuration was loaded from, empty when
	// the process runs on environment variables alone.  serve watches it
	// for hot-reload.
	ConfigFile string
	Logger     logging.Logger
	DB         *gorm.DB
	Metrics    *prometheus.PollMetrics

	Patents     tracking.PatentRepository
	Events      tracking.EventRepository
	Continuity  tracking.ContinuityRepository
	Documents   tracking.DocumentRepository
	Assignments tracking.AssignmentRepository
	Settings    tracking.SettingsRepository

	Secrets      secrets.Store
	Client       uspto.Client
	Orchestrator *refresh.Orchestrator
	Poller       *poller.Poller
}

// NewApp wires the full dependency graph from configuration.
func NewApp(cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := sqlite.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	metrics := prometheus.NewPollMetrics()

	patents := repositories.NewPatentRepository(db, logger)
	events := repositories.NewEventRepository(db, logger)
	continuity := repositories.NewContinuityRepository(db, logger)
	documents := repositories.NewDocumentRepository(db, logger)
	assignments := repositories.NewAssignmentRepository(db, logger)
	settings := repositories.NewSettingsRepository(db, logger)

	store, err := newSecretStore(cfg.Secrets)
	if err != nil {
		_ = sqlite.Close(db)
		return nil, err
	}

	client := uspto.NewClient(cfg.USPTO, uspto.KeyProviderFunc(func(ctx context.Context) (string, error) {
		return store.Get(secrets.APIKeyName)
	}), logger, metrics)

	orchestrator := refresh.NewOrchestrator(client, refresh.Repos{
		Patents:     patents,
		Events:      events,
		Continuity:  continuity,
		Documents:   documents,
		Assignments: assignments,
	}, logger)

	p := poller.New(orchestrator, patents, settings, cfg.Poller, logger, metrics, nil)

	return &App{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		Metrics:      metrics,
		Patents:      patents,
		Events:       events,
		Continuity:   continuity,
		Documents:    documents,
		Assignments:  assignments,
		Settings:     settings,
		Secrets:      store,
		Client:       client,
		Orchestrator: orchestrator,
		Poller:       p,
	}, nil
}

// Close releases the database handle.
func (a *App) Close() error {
	return sqlite.Close(a.DB)
}

func newSecretStore(cfg config.SecretsConfig) (secrets.Store, error) {
	switch cfg.Backend {
	case "keyring":
		return secrets.NewKeyringStore(cfg.Service), nil
	case "env":
		return secrets.NewEnvStore(map[string]string{
			secrets.APIKeyName: "PAIRWATCH_USPTO_API_KEY",
		}), nil
	default:
		return nil, fmt.Errorf("unknown secrets backend %q (want keyring or env)", cfg.Backend)
	}
}
