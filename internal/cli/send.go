package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tgrelay/tgrelay/internal/config"
	"github.com/tgrelay/tgrelay/internal/errors"
	"github.com/tgrelay/tgrelay/internal/telegram"
)

// sendCmd relays a message from the command line, bypassing the HTTP
// server. Requires an already-resolved chat id.
var sendCmd = &cobra.Command{
	Use:   "send <text>...",
	Short: "Send a one-off message to the configured chat",
	Long: `Send a message directly to the configured Telegram chat using the
resolved chat id from the config file.

Example:
  tgrelay send "backup finished"
  tgrelay send --parse-mode markdown "*backup* finished"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

var sendFlags struct {
	ParseMode string
}

func init() {
	sendCmd.Flags().StringVar(&sendFlags.ParseMode, "parse-mode", "", "Telegram formatting mode (markdown or html)")
	RootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(globalFlags.Config).Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if !cfg.Resolved() {
		return &errors.ErrChatNotResolved{Username: cfg.NormalizedUsername()}
	}

	var parseMode string
	switch strings.ToLower(sendFlags.ParseMode) {
	case "markdown":
		parseMode = telegram.ParseModeMarkdownV2
	case "html":
		parseMode = telegram.ParseModeHTML
	case "":
		parseMode = telegram.ParseModeNone
	default:
		return fmt.Errorf("unknown parse mode %q (want markdown or html)", sendFlags.ParseMode)
	}

	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message text is empty")
	}
	if err := telegram.Notify(cfg.TelegramBotToken, cfg.TelegramChatID, text, parseMode); err != nil {
		return err
	}

	if globalFlags.Verbose {
		cmd.Printf("sent %d bytes to chat %d\n", len(text), cfg.TelegramChatID)
	}
	return nil
}
