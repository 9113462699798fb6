package cli

import (
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// GlobalFlags contains global flags available for all commands
type GlobalFlags struct {
	Config  string
	DBPath  string
	Verbose bool
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "github-bot",
	Short: "GitHub Bot - OAuth bridge and webhook relay for chat",
	Long: `GitHub Bot connects a chat channel to GitHub.

It issues OAuth authorization links, exchanges callback codes for access
tokens, lists repositories for authorized chats, and relays GitHub webhook
events into the configured chat.

Usage:
  github-bot [command] [flags]

Available Commands:
  serve      Start the gateway and chat bot (main mode)
  version    Print version information

Flags:
  --config string   Path to configuration file (default "config.yaml")
  --db string       Path to SQLite database (default "./data/github-bot.db")
  --verbose         Enable verbose output

Use "github-bot [command] --help" for more information about a command.`,
}

var globalFlags GlobalFlags

// InitRoot initializes the root command with global flags
func InitRoot() {
	configPath := os.Getenv("GITHUBBOT_CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	dbPath := os.Getenv("GITHUBBOT_DB_PATH")
	if dbPath == "" {
		dbPath = "./data/github-bot.db"
	}

	RootCmd.PersistentFlags().StringVar(&globalFlags.Config, "config", configPath, "Path to configuration file")
	RootCmd.PersistentFlags().StringVar(&globalFlags.DBPath, "db", dbPath, "Path to SQLite database")
	RootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "Enable verbose output")

	RootCmd.AddCommand(versionCmd)
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() GlobalFlags {
	return globalFlags
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of GitHub Bot",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion()
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

// printVersion prints the version information
func printVersion() {
	info := GetVersionInfo()
	println("GitHub Bot Version:", info.Version)
	println("Go Version:", info.GoVersion)
	println("OS/Arch:", info.OS+"/"+info.Arch)
}
