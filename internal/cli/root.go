package cli

import (
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// GlobalFlags contains global flags available for all commands
type GlobalFlags struct {
	Config  string
	Verbose bool
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "tgrelay",
	Short: "tgrelay - HTTP to Telegram notification relay",
	Long: `tgrelay accepts messages over HTTP and forwards them to a single
Telegram chat through the Bot API.

On first start it resolves the target chat id by waiting for the
configured user to message the bot, persists the id into the config
file, and then serves the relay endpoints.

Available Commands:
  serve      Start the relay server (main mode)
  check      Validate the config file and report resolution state
  send       Send a one-off message from the command line
  version    Print version information

Flags:
  --config string   Path to configuration file (default "config.json")
  --verbose         Enable verbose output

Use "tgrelay [command] --help" for more information about a command.`,
}

var globalFlags GlobalFlags

// InitRoot initializes the root command with global flags
func InitRoot() {
	configPath := os.Getenv("TGRELAY_CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	RootCmd.PersistentFlags().StringVar(&globalFlags.Config, "config", configPath, "Path to configuration file")
	RootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable verbose output")

	RootCmd.AddCommand(versionCmd)
}

// configPath returns the config file path, preferring an explicit
// positional argument over the --config flag. The positional form is the
// conventional invocation: tgrelay serve /etc/tgrelay/config.json
func configPath(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return globalFlags.Config
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tgrelay",
	Run: func(cmd *cobra.Command, args []string) {
		info := GetVersionInfo()
		cmd.Println("tgrelay Version:", info.Version)
		cmd.Println("Go Version:", info.GoVersion)
		cmd.Println("OS/Arch:", info.OS+"/"+info.Arch)
	},
}

// VersionInfo contains version information
type VersionInfo struct {
	Version   string
	GoVersion string
	OS        string
	Arch      string
}

// GetVersionInfo returns version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   "0.1.0",
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
