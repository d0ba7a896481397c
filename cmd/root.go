package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/cardbot/internal/config"
	"github.com/abhisek/cardbot/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "cardbot",
	Short: "Vocabulary flash-card chat bot",
	Long:  "cardbot — a chat bot for learning words with flash cards, sets, typed-answer drills and daily reminders.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole(cmd)
	},
	SilenceUsage: true,
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("config", "", "Path to a YAML config file")
	f.String("db", "", "Database DSN or SQLite file path (overrides CARDBOT_STORE_DSN)")
	f.String("driver", "sqlite", "Store driver: sqlite or postgres")
	f.String("log-level", "info", "Log level: debug, info, warn, error")
	f.String("log-format", "json", "Log format: json or console")
	f.String("redis-addr", "", "Redis address for shared conversation state")

	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(remindCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(hintCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig layers the config file, environment and the flags set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	cfg.LLM.Discover()
	return cfg, nil
}

// newLogger builds the process logger. out nil means stderr.
func newLogger(cfg *config.Config, out io.Writer) (*logging.Logger, error) {
	log, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: out,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log, nil
}
