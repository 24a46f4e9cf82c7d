package models

// Block represents a fetched Ethereum block.
type Block struct {
	Height     uint64 `json:"height"`
	Hash       string `json:"hash"`
	ParentHash string `json:"parentHash"`
	Timestamp  uint64 `json:"timestamp"`
	// Transactions is empty when the block was fetched without transaction detail.
	Transactions []*Transaction `json:"transactions,omitempty"`
	// TxCount is the number of transactions in the block, known even without detail.
	TxCount int `json:"txCount"`
}

// Transaction represents a transaction inside a block.
// Value, Gas and GasPrice are base-10 strings; they may exceed 64 bits.
type Transaction struct {
	Hash     string `json:"hash"`
	From     string `json:"from"`
	To       string `json:"to,omitempty"`
	Value    string `json:"value"`
	Gas      string `json:"gas"`
	GasPrice string `json:"gasPrice"`
}
