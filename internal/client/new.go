package client

import (
	"context"
	"fmt"

	"github.com/manifest-network/blockfeed/internal/config"
)

// New builds the ChainService selected by cfg.Backend.
func New(ctx context.Context, cfg config.FeedConfig) (ChainService, error) {
	switch cfg.Backend {
	case config.BackendJSONRPC:
		return NewJSONRPCClient(cfg.Endpoint(), cfg.RequestTimeout), nil
	case config.BackendEthClient:
		return DialEthClient(ctx, cfg.Endpoint())
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
