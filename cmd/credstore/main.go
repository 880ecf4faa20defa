package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"
	"github.com/systmms/credstore/cmd/credstore/commands"
	"github.com/systmms/credstore/internal/config"
	"github.com/systmms/credstore/internal/logging"
	"github.com/systmms/credstore/internal/metrics"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Wipe any key material still held in locked buffers on exit.
	defer memguard.Purge()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		memguard.Purge()
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile  string
		noColor     bool
		debug       bool
		table       string
		region      string
		key         string
		endpoint    string
		metricsPort int
	)

	var metricsServer *metrics.Server

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "credstore",
		Short: "Encrypted credential store on DynamoDB and KMS",
		Long: `credstore keeps small secrets (passwords, API keys, tokens) encrypted
in a DynamoDB table with per-credential data keys wrapped by a KMS master key.
Every write creates a new immutable version; reads default to the newest one.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			logger := logging.New(debug, noColor)

			// Update config with parsed values
			cfg.Path = configFile
			cfg.Logger = logger
			cfg.TableOverride = table
			cfg.RegionOverride = region
			cfg.KeyOverride = key
			cfg.EndpointOverride = endpoint

			if metricsPort > 0 {
				serverCfg := metrics.DefaultServerConfig()
				serverCfg.Enabled = true
				serverCfg.Port = metricsPort
				metricsServer = metrics.NewServer(serverCfg)
				if err := metricsServer.Start(); err != nil {
					logger.Warn("metrics server failed to start: %v", err)
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default credstore.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&table, "table", "", "DynamoDB table holding the credentials")
	rootCmd.PersistentFlags().StringVar(&region, "region", "", "AWS region")
	rootCmd.PersistentFlags().StringVar(&key, "key", "", "KMS master key id or alias")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Custom AWS endpoint (e.g. LocalStack)")
	rootCmd.PersistentFlags().IntVar(&metricsPort, "metrics-port", 0, "Serve Prometheus metrics on this port while the command runs (0 disables)")

	// Add commands
	rootCmd.AddCommand(
		commands.NewSetupCommand(cfg),
		commands.NewPutCommand(cfg),
		commands.NewGetCommand(cfg),
		commands.NewGetAllCommand(cfg),
		commands.NewListCommand(cfg),
		commands.NewDeleteCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	err := rootCmd.Execute()

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if stopErr := metricsServer.Stop(ctx); stopErr != nil {
			cfg.Logger.Warn("metrics server shutdown: %v", stopErr)
		}
	}

	return err
}
