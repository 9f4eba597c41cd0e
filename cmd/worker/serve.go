package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"team_pulse_worker/internal/infra/logger"
	"team_pulse_worker/internal/infra/telegram"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run both passes on the cron schedule until interrupted",
		Long: `Run the rollover and alert passes on CRON_SPEC_TICK.

When TELEGRAM_TOKEN is set the bot also starts, pushing new alerts and
serving the user and admin commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	w, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.scheduler.Start(); err != nil {
		return fmt.Errorf("could not start scheduler: %w", err)
	}

	if w.bot != nil {
		botLogger := logger.ForComponent("bot")
		telegram.RegisterBotCommands(ctx, w.bot, w.admin, w.prefs, botLogger)
		telegram.RegisterAdminHandlers(ctx, w.bot, w.admin, w.cfg.PassTimeout, botLogger)
		go w.bot.Start()
		w.log.Info("Telegram bot started.")
	}

	w.log.Info("Application setup complete. Waiting for ticks...")
	<-ctx.Done()

	w.log.Info("Shutting down application...")
	if w.bot != nil {
		w.bot.Stop()
	}
	w.scheduler.Stop()
	w.log.Info("Application shut down gracefully.")
	return nil
}
