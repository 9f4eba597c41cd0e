// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"team_pulse_worker/internal/app"
	idb "team_pulse_worker/internal/infra/database"
)

const (
	msgUnknownUser = "Your Telegram account is not linked to an active user. Ask an administrator to link it."
	msgLookupError = "Something went wrong while checking your account. Please try again later."
)

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	adminService *app.AdminService,
	prefService *app.PreferenceService,
	baseLogger *logrus.Entry,
) {
	commandLogger := baseLogger.WithField("handler_group", "user_commands")

	b.Handle("/start", startHandler(ctx, adminService, prefService, commandLogger))
	b.Handle("/help", helpHandler(adminService, commandLogger))
	b.Handle("/alerts_on", setAlertsHandler(ctx, prefService, true, commandLogger))
	b.Handle("/alerts_off", setAlertsHandler(ctx, prefService, false, commandLogger))
	b.Handle("/alerts_status", alertsStatusHandler(ctx, prefService, commandLogger))
}

func startHandler(ctx context.Context, adminService *app.AdminService, prefService *app.PreferenceService, logger *logrus.Entry) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := logger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if adminService.IsAdmin(senderID) {
			logCtx.Info("User identified as Admin")
			return c.Send(fmt.Sprintf("Hello, %s! The pulse worker is running. Use /help for the command list.", c.Sender().FirstName))
		}

		sub, enabled, err := prefService.ClientAlertsEnabled(ctx, senderID)
		if err != nil {
			if errors.Is(err, idb.ErrSubscriberNotFound) {
				logCtx.Info("User is unknown")
				return c.Send(msgUnknownUser)
			}
			logCtx.WithError(err).Error("Error resolving user for /start command")
			return c.Send(msgLookupError)
		}

		logCtx.WithField("user_id", sub.UserID).Info("User identified as subscriber")
		state := "off"
		if enabled {
			state = "on"
		}
		return c.Send(fmt.Sprintf("Hello, %s! I will message you when a client you follow is at risk. Alerts are currently %s.", sub.FullName, state))
	}
}

func helpHandler(adminService *app.AdminService, logger *logrus.Entry) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		senderID := c.Sender().ID
		logger.WithField("command", "/help").WithField("sender_id", senderID).Info("Processing /help command")

		var helpText strings.Builder
		helpText.WriteString("Available commands:\n\n")
		helpText.WriteString("/alerts_on - receive client-at-risk alerts\n")
		helpText.WriteString("/alerts_off - stop client-at-risk alerts\n")
		helpText.WriteString("/alerts_status - show your current setting\n")
		if adminService.IsAdmin(senderID) {
			helpText.WriteString("\nAdmin commands:\n\n")
			helpText.WriteString("/run_rollover - roll over every due recurring goal now\n")
			helpText.WriteString("/run_alerts - run the client-at-risk scan now\n")
		}
		helpText.WriteString("/help - show this message")
		return c.Send(helpText.String())
	}
}

func setAlertsHandler(ctx context.Context, prefService *app.PreferenceService, enabled bool, logger *logrus.Entry) telebot.HandlerFunc {
	command := "/alerts_off"
	if enabled {
		command = "/alerts_on"
	}
	return func(c telebot.Context) error {
		logCtx := logger.WithField("command", command).WithField("sender_id", c.Sender().ID)

		sub, err := prefService.SetClientAlerts(ctx, c.Sender().ID, enabled)
		if err != nil {
			if errors.Is(err, idb.ErrSubscriberNotFound) {
				logCtx.Info("User is unknown")
				return c.Send(msgUnknownUser)
			}
			logCtx.WithError(err).Error("Failed to store alert preference")
			return c.Send(msgLookupError)
		}

		logCtx.WithFields(logrus.Fields{"user_id": sub.UserID, "enabled": enabled}).Info("Alert preference updated")
		if enabled {
			return c.Send("Client-at-risk alerts are now on.")
		}
		return c.Send("Client-at-risk alerts are now off.")
	}
}

func alertsStatusHandler(ctx context.Context, prefService *app.PreferenceService, logger *logrus.Entry) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		logCtx := logger.WithField("command", "/alerts_status").WithField("sender_id", c.Sender().ID)

		_, enabled, err := prefService.ClientAlertsEnabled(ctx, c.Sender().ID)
		if err != nil {
			if errors.Is(err, idb.ErrSubscriberNotFound) {
				return c.Send(msgUnknownUser)
			}
			logCtx.WithError(err).Error("Failed to read alert preference")
			return c.Send(msgLookupError)
		}
		if enabled {
			return c.Send("Client-at-risk alerts are on. Use /alerts_off to stop them.")
		}
		return c.Send("Client-at-risk alerts are off. Use /alerts_on to receive them.")
	}
}
