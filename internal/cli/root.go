// Package cli is the backtester command tree.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/pkg/logger"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// RootConfig carries the persistent flags to every subcommand.
type RootConfig struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
	LogFormat  string
}

// Load reads the config file, or the defaults when none is given.
func (rc *RootConfig) Load() (*config.Config, error) {
	if rc.ConfigPath == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.LoadFromFile(rc.ConfigPath)
}

// Logger builds a logger from the flags, falling back to cfg.
func (rc *RootConfig) Logger(cfg *config.Config) (*logger.Logger, error) {
	level, format := rc.LogLevel, rc.LogFormat
	if cfg != nil {
		if level == "" {
			level = cfg.Logger.Level
		}
		if format == "" {
			format = cfg.Logger.Encoding
		}
	}
	if level == "" {
		level = "info"
	}
	if format == "" {
		format = "console"
	}
	return logger.New(level, format)
}

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:           "backtester",
		Short:         "Daily bar backtester for ETFs and futures",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&rc.ConfigPath, "config", "c", "", "path to config file (YAML or JSON)")
	cmd.PersistentFlags().StringVar(&rc.EnvFile, "env-file", ".env", "dotenv file with BACKTESTER_* overrides")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "", "log level: debug|info|warn|error (default from config)")
	cmd.PersistentFlags().StringVar(&rc.LogFormat, "log-format", "", "log encoding: console|json (default from config)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if rc.EnvFile == "" {
			return nil
		}
		// a missing .env is normal
		if err := godotenv.Load(rc.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", rc.EnvFile, err)
		}
		return nil
	}

	cmd.AddCommand(
		newRunCmd(rc),
		newConfigCmd(rc),
		newReportCmd(rc),
		newStrategiesCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "backtester %s\n", Version)
			},
		},
	)

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
