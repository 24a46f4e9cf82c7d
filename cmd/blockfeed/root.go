package blockfeed

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manifest-network/blockfeed/internal/config"
	"github.com/manifest-network/blockfeed/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "blockfeed",
	Short: "Browse recent Ethereum blocks page by page",
	Long: `blockfeed follows the Ethereum chain head through a node provider and shows
the most recent blocks ten per page. Older pages can be browsed while head
polling is paused, and blocks and transactions can be expanded for detail.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		return logging.Setup(os.Stderr, viper.GetString("log-level"), viper.GetString("log-format"))
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	defaults := config.Default()
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", "", "config file (default $HOME/.blockfeed.yaml)")
	flags.String("rpc-url", "", "Ethereum node JSON-RPC URL")
	flags.String("api-key", "", "Alchemy API key, used when --rpc-url is not set")
	flags.String("backend", defaults.Backend, "chain client: jsonrpc or ethclient")
	flags.Int("page-size", defaults.PageSize, "blocks per page")
	flags.Duration("poll-interval", defaults.PollInterval, "interval between chain head polls")
	flags.Bool("include-transactions", false, "fetch full transaction detail with each block")
	flags.Uint("max-concurrency", defaults.MaxConcurrency, "maximum concurrent block requests")
	flags.Uint("max-retries", 0, "retries for a failed block request")
	flags.Duration("request-timeout", defaults.RequestTimeout, "timeout of a single node request")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	flags.String("log-level", defaults.LogLevel, "log level: debug, info, warn, error")
	flags.String("log-format", defaults.LogFormat, "log format: text or json")

	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("failed to bind flags: %v", err))
	}

	rootCmd.AddCommand(watchCmd, pageCmd, headCmd, versionCmd)
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".blockfeed")
	}

	viper.SetEnvPrefix("BLOCKFEED")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicit one must exist.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}
