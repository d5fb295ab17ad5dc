// Package cmd implements the sidekick CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/zhuliguang/Sidekick/internal/api/client"
	"github.com/zhuliguang/Sidekick/internal/config"
	"github.com/zhuliguang/Sidekick/pkg/logger"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "sidekick",
		Short: "Trade data sync and query client",
		Long: "sidekick keeps the trade site's reference data in sync and prices\n" +
			"items against the exchange and search endpoints. Commands run\n" +
			"in-process unless --server points at a running `sidekick serve`.",
		SilenceUsage: true,
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "application config file (YAML)")
	flags.String("server", "", "URL of a running sidekick server; empty runs in-process")
	flags.String("output", "table", "output format (table, json)")
	flags.String("league", "", "league to query (default from config)")
	flags.String("log-level", "", "log level override (debug, info, warn, error)")

	for _, name := range []string{"server", "output", "league", "log-level"} {
		cobra.CheckErr(viper.BindPFlag(name, flags.Lookup(name)))
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(leaguesCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(resyncCmd())
	rootCmd.AddCommand(versionCmd())
}

// initConfig reads CLI preferences from ~/.sidekick.yaml and SIDEKICK_*
// environment variables. The application config is loaded separately.
func initConfig() {
	home, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sidekick")
	}

	viper.SetEnvPrefix("SIDEKICK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig loads the application config and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		if cfg, err = config.Load(cfgFile); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	if l := viper.GetString("league"); l != "" {
		cfg.Sync.League = l
	}
	if lvl := viper.GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logger.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
}

// remoteClient returns a client for --server, or nil to run in-process.
func remoteClient() *apiclient.Client {
	server := viper.GetString("server")
	if server == "" {
		return nil
	}
	return apiclient.New(server)
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}
