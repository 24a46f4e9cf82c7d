package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/manifest-network/blockfeed/internal/models"
	"github.com/manifest-network/blockfeed/internal/utils"
)

// EthClient serves ChainService through go-ethereum's ethclient, which also
// accepts websocket and IPC endpoints.
type EthClient struct {
	client *ethclient.Client
}

var _ ChainService = (*EthClient)(nil)

// DialEthClient connects to the node at rawURL.
func DialEthClient(ctx context.Context, rawURL string) (*EthClient, error) {
	c, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rawURL, err)
	}
	return &EthClient{client: c}, nil
}

// CurrentHeight implements ChainService.
func (c *EthClient) CurrentHeight(ctx context.Context) (uint64, error) {
	height, err := c.client.BlockNumber(ctx)
	if err != nil {
		return 0, newServiceError(blockNumberMethod, err)
	}
	return height, nil
}

// Block implements ChainService.
func (c *EthClient) Block(ctx context.Context, height uint64, includeTransactions bool) (*models.Block, error) {
	number := new(big.Int).SetUint64(height)
	if !includeTransactions {
		return c.header(ctx, number)
	}

	block, err := c.client.BlockByNumber(ctx, number)
	if err != nil {
		return nil, newServiceError(getBlockByNumberMethod, notFound(height, err))
	}

	txs := block.Transactions()
	out := &models.Block{
		Height:       block.NumberU64(),
		Hash:         block.Hash().String(),
		ParentHash:   block.ParentHash().String(),
		Timestamp:    block.Time(),
		TxCount:      len(txs),
		Transactions: make([]*models.Transaction, 0, len(txs)),
	}
	for i, tx := range txs {
		// The sender was cached from the RPC response, so this does not hit the node.
		from, err := c.client.TransactionSender(ctx, tx, block.Hash(), uint(i))
		if err != nil {
			return nil, newServiceError(getBlockByNumberMethod, fmt.Errorf("sender of %s: %w", tx.Hash(), err))
		}
		out.Transactions = append(out.Transactions, convertTransaction(tx, from.String()))
	}
	return out, nil
}

func (c *EthClient) header(ctx context.Context, number *big.Int) (*models.Block, error) {
	header, err := c.client.HeaderByNumber(ctx, number)
	if err != nil {
		return nil, newServiceError(getBlockByNumberMethod, notFound(number.Uint64(), err))
	}
	count, err := c.client.TransactionCount(ctx, header.Hash())
	if err != nil {
		return nil, newServiceError("eth_getBlockTransactionCountByHash", err)
	}
	return &models.Block{
		Height:     header.Number.Uint64(),
		Hash:       header.Hash().String(),
		ParentHash: header.ParentHash.String(),
		Timestamp:  header.Time,
		TxCount:    int(count),
	}, nil
}

// Close implements ChainService.
func (c *EthClient) Close() error {
	c.client.Close()
	return nil
}

func convertTransaction(tx *types.Transaction, from string) *models.Transaction {
	to := ""
	if tx.To() != nil {
		to = tx.To().String()
	}
	gasPrice := "0"
	if tx.GasPrice() != nil {
		gasPrice = tx.GasPrice().String()
	}
	return &models.Transaction{
		Hash:     tx.Hash().String(),
		From:     from,
		To:       to,
		Value:    tx.Value().String(),
		Gas:      utils.FormatUint(tx.Gas()),
		GasPrice: gasPrice,
	}
}

func notFound(height uint64, err error) error {
	if errors.Is(err, ethereum.NotFound) {
		return fmt.Errorf("height %d: %w", height, ErrBlockNotFound)
	}
	return err
}
