// ABOUTME: Root cobra command and shared setup for every subcommand
// ABOUTME: Loads configuration and installs the logger before a command runs
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/harperreed/contactsync/config"
	"github.com/harperreed/contactsync/logging"
)

type appKey struct{}

// app holds what every subcommand needs.
type app struct {
	cfg *config.Config
}

func appFrom(cmd *cobra.Command) *app {
	if a, ok := cmd.Context().Value(appKey{}).(*app); ok {
		return a
	}
	return &app{cfg: &config.Config{}}
}

// NewRootCommand builds the contactsync command tree.
func NewRootCommand(version string) *cobra.Command {
	var (
		envFile    string
		configFile string
		logLevel   string
		logFormat  string
	)

	root := &cobra.Command{
		Use:           "contactsync",
		Short:         "Sync Google Contacts with a Notion database",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Options{EnvFile: envFile, ConfigFile: configFile})
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if logFormat != "" {
				cfg.LogFormat = logFormat
			}

			logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, os.Stderr)
			logging.SetDefault(logger)

			ctx := logging.WithLogger(cmd.Context(), &logger)
			ctx = context.WithValue(ctx, appKey{}, &app{cfg: cfg})
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load")
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default "+config.Dir()+"/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (auto, console, json)")

	root.AddCommand(
		newAuthCommand(),
		newSyncCommand(),
		newInitSchemaCommand(),
		newCheckSchemaCommand(),
		newStatusCommand(),
	)
	return root
}

// Execute runs the command tree.
func Execute(ctx context.Context, version string) error {
	return NewRootCommand(version).ExecuteContext(ctx)
}
