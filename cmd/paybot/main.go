package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/earnify/paybot/bot"
	"github.com/earnify/paybot/core/buildinfo"
	"github.com/earnify/paybot/core/config"
	"github.com/earnify/paybot/core/logger"
	"github.com/earnify/paybot/core/metrics"
	"github.com/earnify/paybot/core/telegram"
	"github.com/earnify/paybot/sheets"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "paybot:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.InitLogger(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			fmt.Fprintln(os.Stderr, "logger shutdown:", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.L.Info("starting",
		slog.String("event", "boot"),
		slog.String("version", buildinfo.Version),
		slog.String("commit", buildinfo.Commit),
	)

	backend, err := sheets.NewGoogleBackend(ctx, cfg.Sheets.CredentialsFile)
	if err != nil {
		return fmt.Errorf("sheets backend: %w", err)
	}
	store := sheets.NewClient(backend,
		sheets.Table{SpreadsheetID: cfg.Sheets.UsersSpreadsheetID, SheetName: cfg.Sheets.UsersSheetName},
		sheets.Table{SpreadsheetID: cfg.Sheets.PaymentsSpreadsheetID, SheetName: cfg.Sheets.PaymentsSheetName},
	)
	if err := store.EnsureHeaders(ctx); err != nil {
		return fmt.Errorf("ensure headers: %w", err)
	}

	if cfg.Metrics.Listen != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Listen); err != nil {
				logger.L.Error("metrics server stopped",
					slog.String("event", "metrics"),
					slog.String("err", err.Error()),
				)
			}
		}()
	}

	app := bot.NewApp(cfg, store)
	return telegram.RunTelegram(ctx, app.RunOptions())
}
