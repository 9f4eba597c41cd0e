package telegram

import (
	"fmt"

	"gopkg.in/telebot.v3"
)

// ErrChatUnreachable means the recipient blocked the bot or the chat is gone.
// Retrying will not help until the user starts the bot again.
var ErrChatUnreachable = fmt.Errorf("telegram chat is unreachable")

// Client sends chat messages to a subscriber's linked Telegram account.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
