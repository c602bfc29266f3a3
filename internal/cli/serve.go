package cli

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tgrelay/tgrelay/internal/api"
	"github.com/tgrelay/tgrelay/internal/config"
	"github.com/tgrelay/tgrelay/internal/logging"
	"github.com/tgrelay/tgrelay/internal/metrics"
	"github.com/tgrelay/tgrelay/internal/resolver"
	"github.com/tgrelay/tgrelay/internal/telegram"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:     "serve [config-path]",
	Aliases: []string{"s", "server", "run"},
	Short:   "Start the relay server",
	Long: `Start the relay server in main mode.

If the config file does not carry a resolved chat id yet, startup blocks
until the configured Telegram user messages the bot; the resolved id is
then written back into the config file and the HTTP endpoints come up.

Example:
  tgrelay serve /etc/tgrelay/config.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	path := configPath(args)
	if globalFlags.Verbose {
		log.Printf("Config path: %s", path)
	}

	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(logging.WithLevel(logging.ParseLevel(cfg.LogLevel)))
	m := metrics.NewMetrics("tgrelay")

	client, err := telegram.NewClient(cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("failed to create telegram client: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One-time human-in-the-loop gate: the server does not accept
	// connections until the chat id is known.
	chatID, err := resolver.New(client, loader, logger, m).Resolve(ctx)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("interrupted before chat id resolution completed")
			return nil
		}
		return fmt.Errorf("chat id resolution failed: %w", err)
	}

	// Config is immutable from here on; external edits only earn a warning.
	cfg = loader.Get()
	if err := loader.Watch(ctx, func() {
		logger.Warn("config file changed on disk, restart to apply", "path", path)
	}); err != nil {
		logger.Warn("config watcher unavailable", "error", err.Error())
	}

	server := api.NewServer(cfg, chatID, client, m, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down", "timeout", cfg.ShutdownTimeoutOrDefault().String())
		if err := server.Shutdown(cfg.ShutdownTimeoutOrDefault()); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	}
}
