package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rahul/outing/internal/observability"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCMD(cfgPath *string) *cobra.Command {
	var (
		addr    string
		console bool
	)
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, *cfgPath, console)
			if err != nil {
				return err
			}
			defer a.Close()
			if console {
				defer startConsole(ctx)()
			}
			a.WatchPrompts(ctx)

			if addr == "" {
				addr = a.Addr()
			}
			srv := a.Server()
			errc := make(chan error, 1)
			go func() { errc <- srv.Start(addr) }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			a.Log.Event(observability.EventHTTP).Info("shutting down", nil)
			return srv.Shutdown(shutdownCtx)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default :server.port)")
	serve.Flags().BoolVar(&console, "console", false, "show the live terminal dashboard")
	return serve
}
