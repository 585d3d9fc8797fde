// Package telegram connects the command service to the Telegram Bot API.
//
// Updates are received by long polling through github.com/go-telegram/bot.
// Commands addressed to another bot ("/stat@other_bot") are skipped. Each
// remaining text message is converted into a bot.Message, handled by the service
// and, when the service replies, answered in the same chat. Outbound sends
// pass through a token bucket so the bot stays under Telegram's flood limits.
//
// Example usage:
//
//	client, err := telegram.New(telegram.Config{Token: token}, svc, m, log)
//	if err != nil {
//	    return err
//	}
//	client.Start(ctx) // blocks until ctx is cancelled
package telegram

import (
	"context"
	"errors"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ErrMissingToken is returned when no bot token is configured.
var ErrMissingToken = errors.New("telegram token is required")

// Config contains client configuration.
type Config struct {
	// Token is the Bot API token.
	Token string

	// SendRate is the sustained number of outbound messages per second.
	// Default: 25.
	SendRate float64

	// SendBurst is the number of messages that may be sent back to back.
	// Default: 5.
	SendBurst int
}

func (c Config) withDefaults() Config {
	if c.SendRate <= 0 {
		c.SendRate = 25
	}
	if c.SendBurst <= 0 {
		c.SendBurst = 5
	}
	return c
}

// Sender delivers a text message. *bot.Bot satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
}

// runner is the part of *bot.Bot the client drives.
type runner interface {
	Sender
	GetMe(ctx context.Context) (*models.User, error)
	Start(ctx context.Context)
}

// allowedUpdates limits polling to plain messages. Edited messages are
// skipped so that editing a /push never records it twice.
var allowedUpdates = tgbot.AllowedUpdates{"message"}

var createBot = func(token string, options ...tgbot.Option) (runner, error) {
	return tgbot.New(token, options...)
}
