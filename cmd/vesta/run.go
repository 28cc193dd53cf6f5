package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/vesta/pkg/audit/retention"
	"mercator-hq/vesta/pkg/cli"
	"mercator-hq/vesta/pkg/config"
	"mercator-hq/vesta/pkg/server"
	"mercator-hq/vesta/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Vesta server",
	Long: `Start the Vesta REST API server with the specified configuration.

The server exposes the configuration store under /v1/configs, the audit
trail under /v1/audit/events, and health and metrics endpoints.

Examples:
  # Start with default config
  vesta run

  # Start with custom config
  vesta run --config /etc/vesta/config.yaml

  # Override listen address
  vesta run --listen 0.0.0.0:8080

  # Validate config without starting the server
  vesta run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(&cfg.Telemetry.Logging, os.Stderr)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	ctx := cli.SetupSignalHandler()

	fmt.Printf("Vesta v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)

	app, err := buildApplication(ctx, cfg, logger, buildOptions{})
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer app.Close()

	// Retention pruning runs on the server only; one-shot CLI commands
	// should not race a scheduled prune.
	if app.auditSink != nil && cfg.Audit.Retention.Enabled {
		pruner := retention.NewPruner(app.auditSink, &retention.Config{
			RetentionDays:       cfg.Audit.Retention.Days,
			MaxEvents:           cfg.Audit.Retention.MaxEvents,
			PruneSchedule:       cfg.Audit.Retention.PruneSchedule,
			ArchiveBeforeDelete: cfg.Audit.Retention.ArchiveBeforeDelete,
			ArchivePath:         cfg.Audit.Retention.ArchivePath,
		})
		if err := pruner.Start(ctx); err != nil {
			logger.Warn("failed to start audit retention scheduler", "error", err)
		} else {
			defer pruner.Stop()
			if next := pruner.NextPruning(); next != nil {
				logger.Debug("audit retention scheduler started", "next_pruning", next)
			}
		}
	}

	opts := server.Options{
		AuditSink: app.auditSink,
		Enforcer:  app.enforcer,
		Checker:   app.checker,
		Logger:    logger,
	}
	metricsCfg := &cfg.Telemetry.Metrics
	if app.collector != nil && metricsCfg.Port == 0 {
		opts.MetricsHandler = app.collector.Handler()
		opts.MetricsPath = metricsCfg.Path
	}

	srv, err := server.New(&cfg.Server, app.manager, opts)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	// A non-zero metrics port moves the exposition onto its own listener.
	if app.collector != nil && metricsCfg.Port != 0 {
		go serveMetrics(ctx, app, metricsCfg.Port, metricsCfg.Path)
	}

	fmt.Printf("Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("Health endpoint: http://%s/healthz\n", cfg.Server.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Println("Server stopped")
	return nil
}

func serveMetrics(ctx context.Context, app *application, port int, path string) {
	mux := http.NewServeMux()
	mux.Handle("GET "+path, app.collector.Handler())
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		app.logger.Error("metrics listener failed", "error", err)
	}
}
