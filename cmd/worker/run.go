package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"team_pulse_worker/internal/infra/scheduler"
	"team_pulse_worker/internal/infra/telegram"
)

func runCmd() *cobra.Command {
	var only, at string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one tick now and print the reports",
		Long: `Run one tick in-process, the same way the scheduler does.

Examples:
  pulse-worker run
  pulse-worker run --only alerts
  pulse-worker run --only rollover --at 2024-03-01T10:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			passes := []scheduler.Pass{scheduler.PassRollover, scheduler.PassAlerts}
			if only != "" {
				p, ok := scheduler.ParsePass(only)
				if !ok {
					return fmt.Errorf("invalid --only %q: use rollover or alerts", only)
				}
				passes = []scheduler.Pass{p}
			}

			now := time.Now().UTC()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				now = parsed.UTC()
			}

			return runOnce(cmd.Context(), passes, now, cmd)
		},
	}

	cmd.Flags().StringVar(&only, "only", "", "run a single pass (rollover, alerts)")
	cmd.Flags().StringVar(&at, "at", "", "evaluate as of this RFC3339 time instead of now")

	return cmd
}

func runOnce(ctx context.Context, passes []scheduler.Pass, now time.Time, cmd *cobra.Command) error {
	w, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(ctx, w.cfg.PassTimeout)
	defer cancel()
	report := w.scheduler.RunPasses(ctx, now, passes...)

	out := cmd.OutOrStdout()
	if report.Rollover != nil {
		fmt.Fprintln(out, telegram.FormatRolloverReport(report.Rollover))
	}
	if report.RolloverErr != nil {
		fmt.Fprintf(out, "Rollover pass failed: %v\n", report.RolloverErr)
	}
	if report.Alerts != nil {
		fmt.Fprintln(out, telegram.FormatAlertReport(report.Alerts))
	}
	if report.AlertsErr != nil {
		fmt.Fprintf(out, "Alert pass failed: %v\n", report.AlertsErr)
	}

	if report.Failed() {
		return fmt.Errorf("tick finished with a failed pass")
	}
	return nil
}
