package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rahul/outing/internal/app"
	"github.com/rahul/outing/internal/observability"
	"github.com/rahul/outing/pkg/config"
	"github.com/spf13/cobra"
)

func main() {
	var cfgPath string
	root := &cobra.Command{
		Use:          "outing",
		Short:        "Plan an evening out: movies, dinner, weather and what's on",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config.{yaml,json})")

	root.AddCommand(serveCMD(&cfgPath), planCMD(&cfgPath), telegramCMD(&cfgPath), discordCMD(&cfgPath))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadApp reads the configuration and wires the planner. A console run logs
// through the terminal writer beneath the live dashboard.
func loadApp(ctx context.Context, cfgPath string, console bool) (*app.App, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	var log observability.Logger
	if console {
		log = observability.NewConsoleLogger(cfg.Logging.Level)
	} else {
		log = observability.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	}
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("startup failed: %w", err)
	}
	return a, nil
}

// startConsole draws the banner and keeps the status line and heartbeat
// fresh until ctx is done. The returned func restores the terminal.
func startConsole(ctx context.Context) func() {
	observability.PrintBanner()
	observability.InitializeTerminal()

	go func() {
		status := time.NewTicker(1 * time.Second)
		heartbeat := time.NewTicker(30 * time.Second)
		defer status.Stop()
		defer heartbeat.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-status.C:
				observability.PrintLiveStatus()
			case <-heartbeat.C:
				observability.Heartbeat()
			}
		}
	}()

	return observability.CleanupTerminal
}
