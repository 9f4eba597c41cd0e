package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"team_pulse_worker/internal/app"
)

const msgNotAuthorized = "Error: you are not allowed to run this command."

// RegisterAdminHandlers registers the commands that let the configured admin
// run a pass outside the schedule. Each run is bounded by passTimeout.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, passTimeout time.Duration, baseLogger *logrus.Entry) {
	b.Handle("/run_rollover", runRolloverHandler(ctx, adminService, passTimeout, baseLogger))
	b.Handle("/run_alerts", runAlertsHandler(ctx, adminService, passTimeout, baseLogger))
}

func runRolloverHandler(ctx context.Context, adminService *app.AdminService, passTimeout time.Duration, baseLogger *logrus.Entry) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/run_rollover",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		passCtx, cancel := context.WithTimeout(ctx, passTimeout)
		defer cancel()
		report, err := adminService.TriggerRollover(passCtx, c.Sender().ID)
		if err != nil {
			if errors.Is(err, app.ErrAdminNotAuthorized) {
				handlerLogger.Warn("Unauthorized access attempt")
				return c.Send(msgNotAuthorized)
			}
			handlerLogger.WithError(err).Error("Manual rollover pass failed")
			return c.Send(fmt.Sprintf("Rollover pass failed: %s", err.Error()))
		}

		handlerLogger.WithField("processed", report.Processed).Info("Manual rollover pass finished")
		return c.Send(FormatRolloverReport(report))
	}
}

func runAlertsHandler(ctx context.Context, adminService *app.AdminService, passTimeout time.Duration, baseLogger *logrus.Entry) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/run_alerts",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		passCtx, cancel := context.WithTimeout(ctx, passTimeout)
		defer cancel()
		report, err := adminService.TriggerAlerts(passCtx, c.Sender().ID)
		if err != nil {
			if errors.Is(err, app.ErrAdminNotAuthorized) {
				handlerLogger.Warn("Unauthorized access attempt")
				return c.Send(msgNotAuthorized)
			}
			handlerLogger.WithError(err).Error("Manual alert pass failed")
			return c.Send(fmt.Sprintf("Alert pass failed: %s", err.Error()))
		}

		handlerLogger.WithField("notified", report.Notified).Info("Manual alert pass finished")
		return c.Send(FormatAlertReport(report))
	}
}

// FormatRolloverReport summarizes a rollover pass for chat and CLI output.
func FormatRolloverReport(r *app.RolloverReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Rollover pass: %d due, %d rolled over, %d failed.", r.Processed, r.Succeeded(), r.Failed())
	for _, res := range r.Results {
		switch {
		case res.Success:
			fmt.Fprintf(&sb, "\n- %s: cycle #%d archived at %d%%", res.GoalID, res.CycleNumber, res.CompletionRate)
		case res.Error != nil:
			fmt.Fprintf(&sb, "\n- %s: failed (%v)", res.GoalID, res.Error)
		case res.Skipped:
			fmt.Fprintf(&sb, "\n- %s: skipped (%s)", res.GoalID, res.Reason)
		}
	}
	return sb.String()
}

// FormatAlertReport summarizes an alert pass for chat and CLI output.
func FormatAlertReport(r *app.AlertReport) string {
	return fmt.Sprintf("Alert pass: %d critical, %d over threshold, %d notified, %d skipped, %d failed.",
		r.CriticalFound, r.OverThreshold, r.Notified, r.Skipped, r.Failed)
}
