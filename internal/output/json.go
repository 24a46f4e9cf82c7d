package output

import (
	"encoding/json"
	"io"

	"github.com/manifest-network/blockfeed/internal/feed"
	"github.com/manifest-network/blockfeed/internal/models"
)

// JSONHandler writes one JSON document per view, for piping into other tools.
type JSONHandler struct {
	enc *json.Encoder
}

type jsonTransaction struct {
	*models.Transaction
	Expanded bool `json:"expanded"`
}

type jsonBlock struct {
	Height       uint64            `json:"height"`
	Hash         string            `json:"hash"`
	ParentHash   string            `json:"parentHash"`
	Timestamp    uint64            `json:"timestamp"`
	TxCount      int               `json:"txCount"`
	Expanded     bool              `json:"expanded"`
	Transactions []jsonTransaction `json:"transactions,omitempty"`
}

type jsonView struct {
	Head    uint64      `json:"head"`
	Page    int         `json:"page"`
	MaxPage int         `json:"maxPage"`
	Loading bool        `json:"loading"`
	Polling bool        `json:"polling"`
	Blocks  []jsonBlock `json:"blocks"`
}

type jsonMessage struct {
	Message string `json:"message"`
}

func NewJSONHandler(w io.Writer) *JSONHandler {
	return &JSONHandler{enc: json.NewEncoder(w)}
}

func (h *JSONHandler) WriteView(view feed.View) error {
	out := jsonView{
		Head:    view.Head,
		Page:    view.Page,
		MaxPage: view.MaxPage,
		Loading: view.Loading,
		Polling: view.Polling,
		Blocks:  make([]jsonBlock, 0, len(view.Blocks)),
	}
	for _, bv := range view.Blocks {
		b := jsonBlock{
			Height:     bv.Block.Height,
			Hash:       bv.Block.Hash,
			ParentHash: bv.Block.ParentHash,
			Timestamp:  bv.Block.Timestamp,
			TxCount:    bv.Block.TxCount,
			Expanded:   bv.Expanded,
		}
		for j, tx := range bv.Block.Transactions {
			b.Transactions = append(b.Transactions, jsonTransaction{
				Transaction: tx,
				Expanded:    j < len(bv.TxExpanded) && bv.TxExpanded[j],
			})
		}
		out.Blocks = append(out.Blocks, b)
	}
	return h.enc.Encode(out)
}

func (h *JSONHandler) WriteMessage(msg string) error {
	return h.enc.Encode(jsonMessage{Message: msg})
}

func (h *JSONHandler) Close() error {
	return nil
}
