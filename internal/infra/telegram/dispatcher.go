package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"team_pulse_worker/internal/domain/notification"
	"team_pulse_worker/internal/domain/subscriber"
	domaintg "team_pulse_worker/internal/domain/telegram"
)

// NotificationDispatcher pushes persisted notifications to the recipient's
// Telegram chat. Recipients without a linked chat only get the inbox entry.
type NotificationDispatcher struct {
	client domaintg.Client
	logger *logrus.Entry
}

func NewNotificationDispatcher(client domaintg.Client, logger *logrus.Entry) *NotificationDispatcher {
	return &NotificationDispatcher{client: client, logger: logger}
}

func (d *NotificationDispatcher) Dispatch(ctx context.Context, recipient *subscriber.Subscriber, n *notification.Notification) error {
	if recipient.TelegramID == 0 {
		d.logger.WithField("recipient_id", recipient.UserID).Debug("Recipient has no linked chat, skipping push")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := d.client.SendMessage(recipient.TelegramID, FormatNotification(n), &telebot.SendOptions{
		DisableWebPagePreview: true,
	})
	if errors.Is(err, domaintg.ErrChatUnreachable) {
		d.logger.WithError(err).WithField("recipient_id", recipient.UserID).Info("Recipient chat is unreachable, notification stays in the inbox")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to send notification %s to chat %d: %w", n.ID, recipient.TelegramID, err)
	}
	d.logger.WithFields(logrus.Fields{
		"recipient_id":    recipient.UserID,
		"notification_id": n.ID,
	}).Info("Notification pushed to Telegram")
	return nil
}

// FormatNotification renders the chat text of a notification.
func FormatNotification(n *notification.Notification) string {
	marker := "⚠️"
	if n.Metadata.Urgency == notification.UrgencyCritical {
		marker = "🚨"
	}
	return fmt.Sprintf("%s %s\n\n%s", marker, n.Title, n.Message)
}
