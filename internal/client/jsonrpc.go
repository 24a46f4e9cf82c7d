package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/manifest-network/blockfeed/internal/models"
	"github.com/manifest-network/blockfeed/internal/utils"
)

const (
	blockNumberMethod      = "eth_blockNumber"
	getBlockByNumberMethod = "eth_getBlockByNumber"
)

// JSONRPCClient talks to an Ethereum node provider over HTTP JSON-RPC.
type JSONRPCClient struct {
	http     *resty.Client
	endpoint string
	nextID   atomic.Uint64
}

var _ ChainService = (*JSONRPCClient)(nil)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

type rpcBlock struct {
	Number       string            `json:"number"`
	Hash         string            `json:"hash"`
	ParentHash   string            `json:"parentHash"`
	Timestamp    string            `json:"timestamp"`
	Transactions []json.RawMessage `json:"transactions"`
}

type rpcTransaction struct {
	Hash     string  `json:"hash"`
	From     string  `json:"from"`
	To       *string `json:"to"`
	Value    string  `json:"value"`
	Gas      string  `json:"gas"`
	GasPrice string  `json:"gasPrice"`
}

// NewJSONRPCClient creates a client for the given endpoint URL.
func NewJSONRPCClient(endpoint string, timeout time.Duration) *JSONRPCClient {
	http := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &JSONRPCClient{http: http, endpoint: endpoint}
}

// CurrentHeight implements ChainService.
func (c *JSONRPCClient) CurrentHeight(ctx context.Context) (uint64, error) {
	var result string
	if err := c.call(ctx, blockNumberMethod, &result); err != nil {
		return 0, err
	}
	height, err := utils.ParseHeight(result)
	if err != nil {
		return 0, newServiceError(blockNumberMethod, err)
	}
	return height, nil
}

// Block implements ChainService.
func (c *JSONRPCClient) Block(ctx context.Context, height uint64, includeTransactions bool) (*models.Block, error) {
	var raw *rpcBlock
	if err := c.call(ctx, getBlockByNumberMethod, &raw, utils.EncodeHeight(height), includeTransactions); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, newServiceError(getBlockByNumberMethod, fmt.Errorf("height %d: %w", height, ErrBlockNotFound))
	}
	block, err := decodeBlock(raw, includeTransactions)
	if err != nil {
		return nil, newServiceError(getBlockByNumberMethod, fmt.Errorf("height %d: %w", height, err))
	}
	return block, nil
}

// Close implements ChainService. The HTTP client holds no long-lived connection.
func (c *JSONRPCClient) Close() error {
	return nil
}

func (c *JSONRPCClient) call(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.endpoint)
	if err != nil {
		return newServiceError(method, err)
	}
	if resp.IsError() {
		return newServiceError(method, fmt.Errorf("unexpected HTTP status %s", resp.Status()))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(resp.Body(), &rpcResp); err != nil {
		return newServiceError(method, fmt.Errorf("failed to decode response: %w", err))
	}
	if rpcResp.Error != nil {
		return newServiceError(method, rpcResp.Error)
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return newServiceError(method, fmt.Errorf("failed to decode result: %w", err))
	}
	return nil
}

func decodeBlock(raw *rpcBlock, includeTransactions bool) (*models.Block, error) {
	height, err := utils.ParseHeight(raw.Number)
	if err != nil {
		return nil, err
	}
	timestamp, err := utils.ParseHeight(raw.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp: %w", err)
	}

	block := &models.Block{
		Height:     height,
		Hash:       raw.Hash,
		ParentHash: raw.ParentHash,
		Timestamp:  timestamp,
		TxCount:    len(raw.Transactions),
	}
	if !includeTransactions {
		return block, nil
	}

	block.Transactions = make([]*models.Transaction, 0, len(raw.Transactions))
	for i, rawTx := range raw.Transactions {
		var tx rpcTransaction
		if err := json.Unmarshal(rawTx, &tx); err != nil {
			return nil, fmt.Errorf("failed to decode transaction %d: %w", i, err)
		}
		decoded, err := decodeTransaction(&tx)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.Hash, err)
		}
		block.Transactions = append(block.Transactions, decoded)
	}
	return block, nil
}

func decodeTransaction(tx *rpcTransaction) (*models.Transaction, error) {
	value, err := utils.FormatQuantity(tx.Value)
	if err != nil {
		return nil, err
	}
	gas, err := utils.FormatQuantity(tx.Gas)
	if err != nil {
		return nil, err
	}
	gasPrice, err := utils.FormatQuantity(tx.GasPrice)
	if err != nil {
		return nil, err
	}

	// Contract creations have no recipient.
	to := ""
	if tx.To != nil {
		to = *tx.To
	}

	return &models.Transaction{
		Hash:     tx.Hash,
		From:     tx.From,
		To:       to,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
	}, nil
}
