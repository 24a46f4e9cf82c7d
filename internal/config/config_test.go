package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*FeedConfig)
		wantErr string
	}{
		{
			name:   "api key only",
			mutate: func(c *FeedConfig) { c.APIKey = "key" },
		},
		{
			name:   "rpc url only",
			mutate: func(c *FeedConfig) { c.RPCURL = "https://node.example.com" },
		},
		{
			name:    "no endpoint",
			mutate:  func(c *FeedConfig) {},
			wantErr: "either rpc-url or api-key must be set",
		},
		{
			name: "websocket needs ethclient",
			mutate: func(c *FeedConfig) {
				c.RPCURL = "wss://node.example.com"
			},
			wantErr: "requires the ethclient backend",
		},
		{
			name: "websocket with ethclient",
			mutate: func(c *FeedConfig) {
				c.RPCURL = "wss://node.example.com"
				c.Backend = BackendEthClient
			},
		},
		{
			name: "bad scheme",
			mutate: func(c *FeedConfig) {
				c.RPCURL = "ftp://node.example.com"
			},
			wantErr: "invalid rpc-url scheme",
		},
		{
			name: "unknown backend",
			mutate: func(c *FeedConfig) {
				c.APIKey = "key"
				c.Backend = "grpc"
			},
			wantErr: "unknown backend",
		},
		{
			name: "zero page size",
			mutate: func(c *FeedConfig) {
				c.APIKey = "key"
				c.PageSize = 0
			},
			wantErr: "page-size must be at least 1",
		},
		{
			name: "zero poll interval",
			mutate: func(c *FeedConfig) {
				c.APIKey = "key"
				c.PollInterval = 0
			},
			wantErr: "poll-interval must be positive",
		},
		{
			name: "zero concurrency",
			mutate: func(c *FeedConfig) {
				c.APIKey = "key"
				c.MaxConcurrency = 0
			},
			wantErr: "max-concurrency must be at least 1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestEndpoint(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "abc"
	assert.Equal(t, "https://eth-mainnet.g.alchemy.com/v2/abc", cfg.Endpoint())

	cfg.RPCURL = "http://localhost:8545"
	assert.Equal(t, "http://localhost:8545", cfg.Endpoint())
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 12*time.Second, cfg.PollInterval)
	assert.Equal(t, BackendJSONRPC, cfg.Backend)
}
