package telegram

import "gopkg.in/telebot.v3"

// Client is the narrow sending interface the application services
// depend on, keeping them decoupled from the concrete bot library.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
