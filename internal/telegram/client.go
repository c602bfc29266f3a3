// Package telegram wraps the Telegram Bot API behind a small interface so
// the resolver and relay server can be tested without network access.
package telegram

import (
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tgrelay/tgrelay/internal/errors"
)

// Parse modes accepted by sendMessage. Empty means a plain send with no
// parse_mode field at all.
const (
	ParseModeNone       = ""
	ParseModeMarkdownV2 = tgbotapi.ModeMarkdownV2
	ParseModeHTML       = tgbotapi.ModeHTML
)

// Update is an incoming Telegram event reduced to the fields the resolver
// consumes.
type Update struct {
	UpdateID int
	ChatID   int64
	Username string
	Text     string
}

// API is the surface of the Telegram Bot API used by the relay.
// Implementations carry no retry logic; callers own retry and backoff.
type API interface {
	// SendMessage delivers text to the chat. parseMode is one of the
	// ParseMode constants.
	SendMessage(chatID int64, text string, parseMode string) error
	// GetUpdates long-polls for new updates. The offset is tracked
	// internally and increases monotonically, so no update is returned
	// twice.
	GetUpdates() ([]Update, error)
}

// Client adapts tgbotapi.BotAPI to the API interface.
type Client struct {
	bot          *tgbotapi.BotAPI
	updateConfig tgbotapi.UpdateConfig
	mu           sync.Mutex
}

// apiTimeout bounds every Bot API round trip. The long-poll timeout below
// must stay under it or getUpdates would be cut off client-side.
const apiTimeout = 35 * time.Second

const longPollSeconds = 30

// NewClient creates a Telegram client for the given bot token.
func NewClient(token string) (*Client, error) {
	return NewClientWithEndpoint(token, tgbotapi.APIEndpoint)
}

// NewClientWithEndpoint creates a client against a custom API endpoint.
// Tests point this at an httptest server.
func NewClientWithEndpoint(token, endpoint string) (*Client, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: apiTimeout})
	if err != nil {
		return nil, &errors.ErrTelegramAPI{Op: "getMe", Err: err}
	}

	update := tgbotapi.NewUpdate(0)
	update.Timeout = longPollSeconds

	return &Client{
		bot:          bot,
		updateConfig: update,
	}, nil
}

// SendMessage sends a message to the specified chat.
func (c *Client) SendMessage(chatID int64, text string, parseMode string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	if _, err := c.bot.Send(msg); err != nil {
		return &errors.ErrTelegramAPI{Op: "sendMessage", Err: err}
	}
	return nil
}

// GetUpdates fetches new updates, advancing the internal offset past
// everything returned.
func (c *Client) GetUpdates() ([]Update, error) {
	c.mu.Lock()
	updates, err := c.bot.GetUpdates(c.updateConfig)
	if err != nil {
		c.mu.Unlock()
		return nil, &errors.ErrTelegramAPI{Op: "getUpdates", Err: err}
	}
	if len(updates) > 0 {
		c.updateConfig.Offset = updates[len(updates)-1].UpdateID + 1
	}
	c.mu.Unlock()

	out := make([]Update, 0, len(updates))
	for _, update := range updates {
		if update.Message == nil {
			continue
		}
		u := Update{
			UpdateID: update.UpdateID,
			ChatID:   update.Message.Chat.ID,
			Text:     update.Message.Text,
		}
		if update.Message.From != nil {
			u.Username = update.Message.From.UserName
		}
		out = append(out, u)
	}

	return out, nil
}

var _ API = (*Client)(nil)
