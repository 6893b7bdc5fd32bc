package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/uspto-tools/pairwatch/internal/config"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/logging"
	httpserver "github.com/uspto-tools/pairwatch/internal/interfaces/http"
	"github.com/uspto-tools/pairwatch/internal/interfaces/http/handlers"
)

// NewServeCmd creates the serve command: the background scheduler plus the
// local HTTP API, shut down together on SIGINT/SIGTERM.
func NewServeCmd(app appProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the poll scheduler and the local HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			cfg := a.Config

			gin.SetMode(cfg.Server.Mode)

			var metricsHandler http.Handler
			if cfg.Metrics.Enabled {
				metricsHandler = a.Metrics.Handler()
			}
			router := httpserver.NewRouter(httpserver.RouterConfig{
				PatentHandler: handlers.NewPatentHandler(
					a.Patents, a.Events, a.Continuity, a.Documents, a.Assignments, a.Logger),
				UpdatesHandler:  handlers.NewUpdatesHandler(a.Events),
				PollHandler:     handlers.NewPollHandler(a.Poller),
				SettingsHandler: handlers.NewSettingsHandler(a.Settings, a.Poller),
				APIKeyHandler:   handlers.NewAPIKeyHandler(a.Secrets, a.Client, a.Logger),
				HealthHandler:   handlers.NewHealthHandler(Version, dbChecker{a}),
				MetricsHandler:  metricsHandler,
				Logger:          a.Logger,
			})
			srv := httpserver.NewServer(cfg.Server, router, a.Logger)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			pollerDone := make(chan struct{})
			if cfg.Poller.Enabled {
				go func() {
					defer close(pollerDone)
					a.Poller.Run(ctx)
				}()
			} else {
				close(pollerDone)
				a.Logger.Info("scheduled polling disabled; manual refresh only")
			}

			if a.ConfigFile != "" {
				config.Watch(a.ConfigFile, func(next *config.Config) {
					a.Poller.Reconfigure(next.Poller)
					a.Logger.Info("configuration reloaded",
						logging.String("file", a.ConfigFile),
						logging.Duration("poll_interval", next.Poller.Interval))
				})
			}

			serveErr := make(chan error, 1)
			go func() { serveErr <- srv.Start() }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case sig := <-sigCh:
				a.Logger.Info("shutting down", logging.String("signal", sig.String()))
			case err := <-serveErr:
				if err != nil {
					cancel()
					<-pollerDone
					return err
				}
			}

			cancel()

			shutdownCtx, shutdownCancel := context.WithTimeout(
				context.Background(), cfg.Server.ShutdownTimeout)
			defer shutdownCancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				a.Logger.Error("http shutdown failed", logging.Err(err))
			}
			<-pollerDone

			a.Logger.Info("goodbye")
			return nil
		},
	}
}

// dbChecker adapts the App's database handle to the readiness probe.
type dbChecker struct {
	app *App
}

func (c dbChecker) Name() string { return "database" }

func (c dbChecker) Check(ctx context.Context) error {
	sqlDB, err := c.app.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
