package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/manifest-network/blockfeed/internal/feed"
	"github.com/manifest-network/blockfeed/internal/models"
)

// TextHandler renders views for a terminal.
type TextHandler struct {
	w *bufio.Writer
}

func NewTextHandler(w io.Writer) *TextHandler {
	return &TextHandler{w: bufio.NewWriter(w)}
}

func (h *TextHandler) WriteView(view feed.View) error {
	polling := "paused"
	if view.Polling {
		polling = "live"
	}
	fmt.Fprintf(h.w, "Page %d of %d | head %d | %s\n", view.Page, view.MaxPage, view.Head, polling)
	fmt.Fprintln(h.w, strings.Repeat("=", 72))

	if view.Loading {
		fmt.Fprintln(h.w, "Loading...")
		return h.w.Flush()
	}

	for i, bv := range view.Blocks {
		writeBlock(h.w, i, bv)
		if i < len(view.Blocks)-1 {
			fmt.Fprintln(h.w, strings.Repeat("-", 72))
		}
	}
	fmt.Fprintln(h.w, "[n]ext [p]revious [b <i>] block [t <i> <j>] transaction [q]uit")
	return h.w.Flush()
}

func (h *TextHandler) WriteMessage(msg string) error {
	fmt.Fprintln(h.w, msg)
	return h.w.Flush()
}

func (h *TextHandler) Close() error {
	return h.w.Flush()
}

func writeBlock(w io.Writer, i int, bv feed.BlockView) {
	b := bv.Block
	marker := "+"
	if bv.Expanded {
		marker = "-"
	}
	fmt.Fprintf(w, "%s [%d] Block Number: %d\n", marker, i, b.Height)
	fmt.Fprintf(w, "      Hash:         %s\n", b.Hash)
	fmt.Fprintf(w, "      Parent Hash:  %s\n", b.ParentHash)
	fmt.Fprintf(w, "      Timestamp:    %d (%s)\n", b.Timestamp, time.Unix(int64(b.Timestamp), 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "      Transactions: %d\n", b.TxCount)
	if !bv.Expanded {
		return
	}
	if len(b.Transactions) == 0 && b.TxCount > 0 {
		fmt.Fprintln(w, "      (transaction detail not fetched, enable --include-transactions)")
		return
	}
	for j, tx := range b.Transactions {
		expanded := j < len(bv.TxExpanded) && bv.TxExpanded[j]
		writeTransaction(w, j, tx, expanded)
	}
}

func writeTransaction(w io.Writer, j int, tx *models.Transaction, expanded bool) {
	fmt.Fprintf(w, "        [%d] %s\n", j, tx.Hash)
	if !expanded {
		return
	}
	to := tx.To
	if to == "" {
		to = "(contract creation)"
	}
	fmt.Fprintf(w, "            From:      %s\n", tx.From)
	fmt.Fprintf(w, "            To:        %s\n", to)
	fmt.Fprintf(w, "            Value:     %s wei\n", tx.Value)
	fmt.Fprintf(w, "            Gas:       %s\n", tx.Gas)
	fmt.Fprintf(w, "            Gas Price: %s wei\n", tx.GasPrice)
}
