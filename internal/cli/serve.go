package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	slackapi "github.com/slack-go/slack"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/effortmap/internal/chart"
	"github.com/emiliopalmerini/effortmap/internal/config"
	"github.com/emiliopalmerini/effortmap/internal/database"
	"github.com/emiliopalmerini/effortmap/internal/effort"
	"github.com/emiliopalmerini/effortmap/internal/logging"
	"github.com/emiliopalmerini/effortmap/internal/metrics"
	"github.com/emiliopalmerini/effortmap/internal/migrate"
	"github.com/emiliopalmerini/effortmap/internal/share"
	"github.com/emiliopalmerini/effortmap/internal/slack"
	"github.com/emiliopalmerini/effortmap/internal/storage"
	"github.com/emiliopalmerini/effortmap/internal/user"
	"github.com/emiliopalmerini/effortmap/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the effortmap server",
	Long: `Start the HTTP server: the effort API, share pages, chart endpoints
and the Slack webhooks.

Examples:
  effortmap serve              # Start on default port 8080
  effortmap serve --port 3000  # Start on port 3000`,
	RunE: runServe,
}

var servePort int

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides EFFORTMAP_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.New(cfg.Database.URL, cfg.Database.AuthToken)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := migrate.RunAll(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	m := metrics.Disabled()
	if cfg.Metrics.Endpoint != "" {
		m, err = metrics.New(ctx, cfg.Metrics)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		defer func() {
			if err := m.Close(context.Background()); err != nil {
				logger.Warn("metrics shutdown", zap.Error(err))
			}
		}()
	}

	store, err := storage.NewFSStore(cfg.Charts.Dir)
	if err != nil {
		return fmt.Errorf("init chart store: %w", err)
	}

	renderer, err := chart.NewPieRenderer()
	if err != nil {
		return fmt.Errorf("init chart renderer: %w", err)
	}

	users := user.NewLibsqlRepository(db)
	graphs := effort.NewLibsqlRepository(db)
	shares := share.NewLibsqlRepository(db)
	links := slack.NewLibsqlRepository(db)

	slackHandler := slack.NewHandler(
		cfg.Slack,
		cfg.BaseURL,
		slackapi.New(cfg.Slack.BotToken),
		links, users, graphs, shares,
		m, logger,
	)

	server := web.NewServer(
		cfg.Port, logger, m,
		users, graphs, shares,
		store,
		chart.NewCache(store, logger),
		renderer,
		chart.NewScreenshotter(cfg.BaseURL, cfg.Charts.BrowserBin, logger),
		slackHandler,
	)
	slackHandler.SetScreenshotter(server)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down")
		cancel()
	}()

	return server.Start(ctx)
}
