package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-timeline/internal/api"
	"github.com/heimdex/heimdex-timeline/internal/config"
	"github.com/heimdex/heimdex-timeline/internal/db"
	"github.com/heimdex/heimdex-timeline/internal/logging"
	"github.com/heimdex/heimdex-timeline/internal/project"
	"github.com/heimdex/heimdex-timeline/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "heimdex-timeline",
	Short: "Multi-track timeline editing server",
	Long: `Heimdex Timeline runs a local editing server for multi-track video
timelines. Projects are stored in SQLite and edited over a loopback HTTP API.

Running without a subcommand is the same as 'heimdex-timeline serve'.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the editing server",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("heimdex-timeline %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildTime)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newImportCommand())
}

func main() {
	// A missing .env is normal; the environment wins either way.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// store is the opened database with the services built on it.
type store struct {
	cfg     *config.EnvConfig
	logger  *slog.Logger
	db      *db.DB
	repo    *project.SQLiteRepository
	service *project.Service
}

func openStore() (*store, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	repo := project.NewRepository(database.Conn())
	svc := project.NewService(repo, project.SessionOptions{
		HistoryLimit:    cfg.HistoryLimit(),
		TrackHeightPx:   cfg.TrackHeightPx(),
		SnapThresholdPx: cfg.SnapThresholdPx(),
	}, logging.WithComponent(logger, "projects"))

	return &store{cfg: cfg, logger: logger, db: database, repo: repo, service: svc}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.db.Close()

	cfg, logger := st.cfg, st.logger
	logger.Info("starting heimdex timeline",
		"version", config.Version,
		"data_dir", logging.SanitizePath(cfg.DataDir()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deviceID, err := st.service.EnsureDeviceID(ctx)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := st.service.EnsureAuthToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║  %-57s║\n", "HEIMDEX TIMELINE v"+config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	runner := project.NewRunner(st.service, cfg.AutosaveInterval(), logging.WithComponent(logger, "autosave"))
	runnerDone := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(runnerDone)
	}()

	apiServer := api.NewServer(api.ServerConfig{
		Port:      cfg.Port(),
		Projects:  st.service,
		Config:    st.repo,
		Runner:    runner,
		Logger:    logger,
		StartTime: startTime,
		DeviceID:  deviceID,
		Version:   config.Version,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})
	var tray *ui.Tray

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray = ui.NewTray(ui.TrayConfig{
			Projects: st.service,
			Runner:   runner,
			Logger:   logging.WithComponent(logger, "tray"),
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		if tray != nil {
			tray.Quit()
		}
	case <-quitCh:
	case runErr = <-serverErr:
		if tray != nil {
			tray.Quit()
		}
	}

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	cancel()
	<-runnerDone

	if err := runner.Flush(shutdownCtx); err != nil {
		logger.Error("failed to save projects on shutdown", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}
