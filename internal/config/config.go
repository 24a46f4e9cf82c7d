package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultPageSize is the number of blocks shown per page.
	DefaultPageSize = 10
	// DefaultPollInterval matches Ethereum's slot time.
	DefaultPollInterval   = 12 * time.Second
	DefaultMaxConcurrency = 10
	DefaultRequestTimeout = 10 * time.Second

	BackendJSONRPC   = "jsonrpc"
	BackendEthClient = "ethclient"

	alchemyMainnetURL = "https://eth-mainnet.g.alchemy.com/v2/"
)

// FeedConfig holds everything needed to run the block feed.
type FeedConfig struct {
	RPCURL              string        `mapstructure:"rpc-url"`
	APIKey              string        `mapstructure:"api-key"`
	Backend             string        `mapstructure:"backend"`
	PageSize            int           `mapstructure:"page-size"`
	PollInterval        time.Duration `mapstructure:"poll-interval"`
	IncludeTransactions bool          `mapstructure:"include-transactions"`
	MaxConcurrency      uint          `mapstructure:"max-concurrency"`
	MaxRetries          uint          `mapstructure:"max-retries"`
	RequestTimeout      time.Duration `mapstructure:"request-timeout"`
	MetricsAddr         string        `mapstructure:"metrics-addr"`
	LogLevel            string        `mapstructure:"log-level"`
	LogFormat           string        `mapstructure:"log-format"`
}

// Default returns a FeedConfig populated with defaults.
func Default() FeedConfig {
	return FeedConfig{
		Backend:        BackendJSONRPC,
		PageSize:       DefaultPageSize,
		PollInterval:   DefaultPollInterval,
		MaxConcurrency: DefaultMaxConcurrency,
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// LoadFeedConfig reads the configuration from viper (flags, env and config file).
func LoadFeedConfig() (FeedConfig, error) {
	cfg := Default()
	if err := viper.Unmarshal(&cfg); err != nil {
		return FeedConfig{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return FeedConfig{}, err
	}
	return cfg, nil
}

// Endpoint returns the node URL. When no URL is set, the Alchemy mainnet
// endpoint for the configured API key is used.
func (c FeedConfig) Endpoint() string {
	if c.RPCURL != "" {
		return c.RPCURL
	}
	return alchemyMainnetURL + c.APIKey
}

func (c FeedConfig) Validate() error {
	if c.RPCURL == "" && c.APIKey == "" {
		return fmt.Errorf("either rpc-url or api-key must be set")
	}
	if c.RPCURL != "" {
		u, err := url.Parse(c.RPCURL)
		if err != nil {
			return fmt.Errorf("invalid rpc-url: %w", err)
		}
		switch u.Scheme {
		case "http", "https":
		case "ws", "wss":
			// Websockets are only understood by the ethclient backend.
			if c.Backend != BackendEthClient {
				return fmt.Errorf("rpc-url scheme %q requires the %s backend", u.Scheme, BackendEthClient)
			}
		default:
			return fmt.Errorf("invalid rpc-url scheme %q", u.Scheme)
		}
	}
	switch c.Backend {
	case BackendJSONRPC, BackendEthClient:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page-size must be at least 1, got %d", c.PageSize)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll-interval must be positive, got %s", c.PollInterval)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max-concurrency must be at least 1")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request-timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}
