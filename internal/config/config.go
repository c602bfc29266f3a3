package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the complete relay configuration. It maps 1:1 onto the
// JSON config file, which is also the only durable state in the system: the
// resolved chat id is written back into it exactly once.
type Config struct {
	// ListenAddr is the host:port the HTTP server binds to.
	ListenAddr string `json:"listen_addr"`
	// TelegramBotToken is the bot credential used against the Bot API.
	TelegramBotToken string `json:"telegram_bot_token"`
	// TelegramUsername is the Telegram username whose chat receives relayed
	// messages. A leading @ is tolerated.
	TelegramUsername string `json:"telegram_username"`
	// TelegramChatID is the resolved chat id. Zero means not yet resolved;
	// the resolver fills it in and persists it.
	TelegramChatID int64 `json:"telegram_chat_id,omitempty"`
	// PathPrefix, when set, mounts all relay routes under /<prefix> as a
	// lightweight shared secret.
	PathPrefix string `json:"path_prefix,omitempty"`
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `json:"log_level,omitempty"`
	// ShutdownTimeout is the graceful shutdown window as a Go duration
	// string, e.g. "30s".
	ShutdownTimeout string `json:"shutdown_timeout,omitempty"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if strings.TrimSpace(c.TelegramBotToken) == "" {
		return fmt.Errorf("telegram_bot_token is required")
	}
	if strings.TrimSpace(c.TelegramUsername) == "" {
		return fmt.Errorf("telegram_username is required")
	}
	// Negative chat ids are valid (groups); zero means unresolved.
	if c.ShutdownTimeout != "" {
		if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
			return fmt.Errorf("shutdown_timeout is not a valid duration: %v", err)
		}
	}
	if strings.Contains(strings.Trim(c.PathPrefix, "/"), "/") {
		return fmt.Errorf("path_prefix must be a single path segment")
	}
	return nil
}

// Resolved reports whether a chat id has already been resolved.
func (c *Config) Resolved() bool {
	return c.TelegramChatID != 0
}

// NormalizedUsername returns the target username without a leading @.
func (c *Config) NormalizedUsername() string {
	return strings.TrimPrefix(strings.TrimSpace(c.TelegramUsername), "@")
}

// NormalizedPrefix returns the path prefix without surrounding slashes.
// Empty when no prefix is configured.
func (c *Config) NormalizedPrefix() string {
	return strings.Trim(c.PathPrefix, "/")
}

// ShutdownTimeoutOrDefault returns the parsed shutdown timeout, defaulting
// to 30s when unset.
func (c *Config) ShutdownTimeoutOrDefault() time.Duration {
	if c.ShutdownTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
