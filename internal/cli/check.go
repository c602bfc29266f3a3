package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgrelay/tgrelay/internal/config"
)

// checkCmd validates the config file without any network access.
var checkCmd = &cobra.Command{
	Use:   "check [config-path]",
	Short: "Validate the config file and report resolution state",
	Long: `Load and validate the config file, reporting whether the target
chat id has been resolved yet. Makes no network calls.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	RootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := configPath(args)

	cfg, err := config.NewLoader(path).Load()
	if err != nil {
		return fmt.Errorf("config check failed: %w", err)
	}

	cmd.Printf("config: %s: OK\n", path)
	cmd.Printf("listen_addr: %s\n", cfg.ListenAddr)
	cmd.Printf("target user: @%s\n", cfg.NormalizedUsername())
	if prefix := cfg.NormalizedPrefix(); prefix != "" {
		cmd.Printf("path prefix: /%s\n", prefix)
	}
	if cfg.Resolved() {
		cmd.Printf("chat id: %d (resolved)\n", cfg.TelegramChatID)
	} else {
		cmd.Println("chat id: not resolved yet; serve will wait for the user to message the bot")
	}

	return nil
}
