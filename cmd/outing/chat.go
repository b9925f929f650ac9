package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rahul/outing/internal/app"
	"github.com/rahul/outing/internal/gateway"
	"github.com/rahul/outing/internal/observability"
	"github.com/spf13/cobra"
)

func telegramCMD(cfgPath *string) *cobra.Command {
	return gatewayCMD(cfgPath, "telegram", "Serve plans over a Telegram bot", func(a *app.App) (gateway.Messenger, error) {
		g, ok := a.Config.GetTelegramConfig()
		if !ok {
			return nil, errors.New("telegram gateway is not enabled or token is missing")
		}
		return gateway.NewTelegramGateway(g.Token, a.Conversation(), a.Log)
	})
}

func discordCMD(cfgPath *string) *cobra.Command {
	return gatewayCMD(cfgPath, "discord", "Serve plans over a Discord bot", func(a *app.App) (gateway.Messenger, error) {
		g, ok := a.Config.GetDiscordConfig()
		if !ok {
			return nil, errors.New("discord gateway is not enabled or token is missing")
		}
		return gateway.NewDiscordGateway(g.Token, a.Conversation(), a.Log)
	})
}

func gatewayCMD(cfgPath *string, use, short string, build func(*app.App) (gateway.Messenger, error)) *cobra.Command {
	var console bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, *cfgPath, console)
			if err != nil {
				return err
			}
			defer a.Close()

			messenger, err := build(a)
			if err != nil {
				return err
			}
			if console {
				defer startConsole(ctx)()
			}
			a.WatchPrompts(ctx)

			if err := messenger.Start(ctx); err != nil {
				a.Log.Event(observability.EventGateway).WithError(err).Error("gateway stopped", observability.Fields{"gateway": use})
				return err
			}
			return messenger.Stop()
		},
	}
	cmd.Flags().BoolVar(&console, "console", false, "show the live terminal dashboard")
	return cmd
}
