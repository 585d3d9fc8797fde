package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"

	"github.com/0xmhha/ysdb/pkg/bot"
	"github.com/0xmhha/ysdb/pkg/ledger"
	"github.com/0xmhha/ysdb/pkg/logger"
	"github.com/0xmhha/ysdb/pkg/metrics"
	"github.com/0xmhha/ysdb/pkg/parser"
)

// Client polls Telegram and answers commands.
type Client struct {
	bot     runner
	service bot.Service

	// username is the bot's own username, resolved by Start. Empty accepts
	// commands mentioning any bot.
	username string

	limiter *rate.Limiter
	metrics *metrics.Metrics
	logger  logger.Logger
}

// New creates a client. The Bot API is contacted once to verify the token.
func New(cfg Config, svc bot.Service, m *metrics.Metrics, log logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrMissingToken
	}
	if log == nil {
		log = logger.Noop()
	}
	cfg = cfg.withDefaults()

	c := &Client{
		service: svc,
		limiter: rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst),
		metrics: m,
		logger:  log,
	}

	b, err := createBot(cfg.Token,
		tgbot.WithAllowedUpdates(allowedUpdates),
		tgbot.WithDefaultHandler(c.handleUpdate),
		tgbot.WithErrorsHandler(c.handleError),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	c.bot = b

	return c, nil
}

// Start receives updates until ctx is cancelled.
func (c *Client) Start(ctx context.Context) {
	me, err := c.bot.GetMe(ctx)
	if err != nil {
		c.logger.Warn("failed to resolve bot username, accepting all mentions", "error", err)
	} else {
		c.username = me.Username
	}

	c.logger.Info("starting telegram long polling",
		"username", c.username,
		"allowed_updates", []string(allowedUpdates),
	)
	c.bot.Start(ctx)
	c.logger.Info("telegram polling stopped")
}

func (c *Client) handleUpdate(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	c.dispatch(ctx, b, update)
}

func (c *Client) handleError(err error) {
	if err == nil {
		return
	}
	c.logger.Error("telegram polling error", "error", err)
}

// dispatch runs one update through the service and sends the reply.
func (c *Client) dispatch(ctx context.Context, sender Sender, update *models.Update) {
	msg, replyTo, ok := toMessage(update)
	if !ok {
		return
	}
	if cmd, ok := parser.ParseCommand(msg.Text); ok && !cmd.AddressedTo(c.username) {
		c.logger.Debug("command for another bot skipped", "mention", cmd.Mention, "chat_id", msg.ChatID)
		return
	}

	reply, ok := c.service.Handle(ctx, msg)
	if !ok {
		return
	}

	if err := c.send(ctx, sender, msg.ChatID, replyTo, reply); err != nil {
		c.logger.Error("failed to send reply", "chat_id", msg.ChatID, "error", err)
	}
}

// send delivers text to chatID as a reply to message replyTo once the
// outbound limiter allows it.
func (c *Client) send(ctx context.Context, sender Sender, chatID int64, replyTo int, text string) error {
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send limiter: %w", err)
	}
	c.metrics.SendWaited(time.Since(start))

	params := &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if replyTo != 0 {
		params.ReplyParameters = &models.ReplyParameters{
			MessageID:                replyTo,
			AllowSendingWithoutReply: true,
		}
	}

	if _, err := sender.SendMessage(ctx, params); err != nil {
		c.metrics.SendFailed()
		return err
	}
	return nil
}

// toMessage extracts the command message of an update.
//
// Returns the message, the id of the Telegram message to reply to, and false
// when the update carries no text from a user.
func toMessage(update *models.Update) (bot.Message, int, bool) {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return bot.Message{}, 0, false
	}

	m := update.Message
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return bot.Message{}, 0, false
	}

	userTitle := UserTitle(m.From)
	chatTitle := userTitle
	if m.Chat.Type != models.ChatTypePrivate {
		chatTitle = ChatTitle(&m.Chat)
	}

	return bot.Message{
		UserID:    m.From.ID,
		ChatID:    m.Chat.ID,
		UserTitle: userTitle,
		ChatTitle: chatTitle,
		Text:      text,
	}, m.ID, true
}

// UserTitle derives a display title from a profile: the full name, then the
// username, then "@<id>".
func UserTitle(u *models.User) string {
	if u == nil {
		return ""
	}
	fullName := strings.TrimSpace(u.FirstName + " " + u.LastName)
	return ledger.DisplayTitle(u.ID, fullName, u.Username)
}

// ChatTitle derives a display title for a group: its title, then its public
// username, then "@<id>".
func ChatTitle(chat *models.Chat) string {
	if chat == nil {
		return ""
	}
	return ledger.DisplayTitle(chat.ID, chat.Title, chat.Username)
}
