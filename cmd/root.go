package cmd

import (
	"fmt"
	"os"

	"github.com/itsmostafa/gorepl/internal/config"
	"github.com/itsmostafa/gorepl/internal/version"
	"github.com/spf13/cobra"
)

var configPath string
var logLevel string
var historyPath string
var workspaceDir string
var noColor bool

// cfg is the effective configuration, resolved before any command runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "gorepl",
	Short: "Interactive JavaScript console",
	Long: `gorepl is an interactive JavaScript console. Input is buffered until it
forms a complete program, evaluated in a shared global namespace, and the last
non-null result is kept in _.

Settings are read from an optional YAML file (--config or GOREPL_CONFIG), then
GOREPL_* environment variables, then flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL(cmd, nil)
	},
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("gorepl %s\n", version.String()))

	// Config file flag with env var fallback
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv(config.EnvPrefix+"CONFIG"), "Path to a YAML config file")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level (NONE, ERROR, WARN, INFO, DEBUG, TRACE)")
	rootCmd.PersistentFlags().StringVar(&historyPath, "history", "", "History database path (empty string keeps history in memory)")
	rootCmd.PersistentFlags().StringVar(&workspaceDir, "workspace", "", "Directory guest code can reach through require(\"fs\")")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable styled output")
}

func loadConfig(cmd *cobra.Command) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := loaded.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		loaded.Logger.LogLevel = logLevel
	}
	if flags.Changed("history") {
		loaded.History.Path = historyPath
	}
	if flags.Changed("workspace") {
		loaded.Workspace.Dir = workspaceDir
	}
	if noColor {
		loaded.REPL.Color = false
	}

	cfg = loaded
	return nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
