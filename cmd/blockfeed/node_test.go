package blockfeed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/manifest-network/blockfeed/internal/config"
)

// newNodeServer serves eth_blockNumber and eth_getBlockByNumber for a chain
// whose head is read from head. Blocks listed in failing answer with an error.
func newNodeServer(t *testing.T, head *atomic.Uint64, failing ...uint64) *httptest.Server {
	t.Helper()
	fail := make(map[uint64]bool)
	for _, h := range failing {
		fail[h] = true
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch req.Method {
		case "eth_blockNumber":
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":"0x%x"}`, req.ID, head.Load())
		case "eth_getBlockByNumber":
			var hexHeight string
			_ = json.Unmarshal(req.Params[0], &hexHeight)
			height, _ := strconv.ParseUint(strings.TrimPrefix(hexHeight, "0x"), 16, 64)
			if fail[height] {
				fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"error":{"code":-32000,"message":"header not found"}}`, req.ID)
				return
			}
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":{"number":"0x%x","hash":"0x%064x","parentHash":"0x%064x","timestamp":"0x%x","transactions":[
				{"hash":"0x%x01","from":"0xfrom","to":"0xto","value":"0xde0b6b3a7640000","gas":"0x5208","gasPrice":"0x1"}]}}`,
				req.ID, height, height, height-1, 1_700_000_000+height*12, height)
		default:
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"error":{"code":-32601,"message":"method not found"}}`, req.ID)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func nodeConfig(url string) config.FeedConfig {
	cfg := config.Default()
	cfg.RPCURL = url
	cfg.PollInterval = time.Hour
	cfg.RequestTimeout = time.Second
	cfg.IncludeTransactions = true
	return cfg
}

// syncBuffer is a bytes.Buffer safe for concurrent writes and reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
