// internal/infra/telegram/client.go
package telegram

import (
	"errors"
	"fmt"

	"gopkg.in/telebot.v3"

	domaintg "team_pulse_worker/internal/domain/telegram"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to a subscriber's private chat. Errors
// meaning the chat can no longer be reached wrap domaintg.ErrChatUnreachable.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}

	_, err := tba.bot.Send(telebot.ChatID(recipientChatID), text, options)
	return classifySendError(err)
}

func classifySendError(err error) error {
	if err == nil {
		return nil
	}
	for _, gone := range []error{telebot.ErrBlockedByUser, telebot.ErrNotStartedByUser, telebot.ErrChatNotFound, telebot.ErrUserIsDeactivated} {
		if errors.Is(err, gone) {
			return fmt.Errorf("%w: %v", domaintg.ErrChatUnreachable, err)
		}
	}
	return err
}
