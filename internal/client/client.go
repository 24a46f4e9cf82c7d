package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifest-network/blockfeed/internal/models"
)

// ErrBlockNotFound is returned when the node has no block at the requested height.
var ErrBlockNotFound = errors.New("block not found")

// ChainService is the remote chain-data API consumed by the feed.
type ChainService interface {
	// CurrentHeight returns the height of the chain head.
	CurrentHeight(ctx context.Context) (uint64, error)

	// Block returns the block at the given height, with full transaction
	// objects when includeTransactions is set.
	Block(ctx context.Context, height uint64, includeTransactions bool) (*models.Block, error)

	// Close releases the underlying connection.
	Close() error
}

// ServiceError is returned by ChainService implementations for any network,
// transport or API failure.
type ServiceError struct {
	Method string
	Err    error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Method, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

func newServiceError(method string, err error) error {
	return &ServiceError{Method: method, Err: err}
}
