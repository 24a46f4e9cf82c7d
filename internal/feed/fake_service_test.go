package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/manifest-network/blockfeed/internal/client"
	"github.com/manifest-network/blockfeed/internal/config"
	"github.com/manifest-network/blockfeed/internal/metrics"
	"github.com/manifest-network/blockfeed/internal/models"
)

var errUnavailable = errors.New("node unavailable")

// fakeService is an in-memory ChainService. Blocks carry three transactions each.
type fakeService struct {
	mu         sync.Mutex
	head       uint64
	headErr    error
	headCalls  int
	blockCalls map[uint64]int
	fail       map[uint64]error
	// failTimes fails the first n calls for a height.
	failTimes map[uint64]int
	// holdFirst blocks the first call for a height until the channel is closed.
	holdFirst map[uint64]chan struct{}
}

var _ client.ChainService = (*fakeService)(nil)

func newFakeService(head uint64) *fakeService {
	return &fakeService{
		head:       head,
		blockCalls: make(map[uint64]int),
		fail:       make(map[uint64]error),
		failTimes:  make(map[uint64]int),
		holdFirst:  make(map[uint64]chan struct{}),
	}
}

func (s *fakeService) CurrentHeight(context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headCalls++
	if s.headErr != nil {
		return 0, &client.ServiceError{Method: "eth_blockNumber", Err: s.headErr}
	}
	return s.head, nil
}

func (s *fakeService) Block(ctx context.Context, height uint64, includeTransactions bool) (*models.Block, error) {
	s.mu.Lock()
	s.blockCalls[height]++
	calls := s.blockCalls[height]
	hold := s.holdFirst[height]
	err := s.fail[height]
	if n := s.failTimes[height]; calls <= n {
		err = errUnavailable
	}
	s.mu.Unlock()

	if hold != nil && calls == 1 {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, &client.ServiceError{Method: "eth_getBlockByNumber", Err: err}
	}

	block := &models.Block{
		Height:     height,
		Hash:       fmt.Sprintf("0x%064x", height),
		ParentHash: fmt.Sprintf("0x%064x", height-1),
		Timestamp:  1_700_000_000 + height*12,
		TxCount:    3,
	}
	if includeTransactions {
		for i := 0; i < 3; i++ {
			block.Transactions = append(block.Transactions, &models.Transaction{
				Hash:  fmt.Sprintf("0x%x%02d", height, i),
				Value: "1000000000000000000",
				Gas:   "21000",
			})
		}
	}
	return block, nil
}

func (s *fakeService) Close() error { return nil }

func (s *fakeService) setHead(h uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.head = h
}

func (s *fakeService) setHeadErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headErr = err
}

func (s *fakeService) calls(height uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockCalls[height]
}

func (s *fakeService) totalBlockCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.blockCalls {
		total += n
	}
	return total
}

func (s *fakeService) headCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headCalls
}

func testConfig() config.FeedConfig {
	cfg := config.Default()
	cfg.APIKey = "test"
	// Long enough that only the refresh issued on start happens during a test.
	cfg.PollInterval = time.Hour
	return cfg
}

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func heightsOf(blocks []*models.Block) []uint64 {
	out := make([]uint64, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.Height)
	}
	return out
}

func viewHeights(v View) []uint64 {
	out := make([]uint64, 0, len(v.Blocks))
	for _, b := range v.Blocks {
		out = append(out, b.Block.Height)
	}
	return out
}

func descending(from, to uint64) []uint64 {
	var out []uint64
	for h := from; h >= to; h-- {
		out = append(out, h)
		if h == 0 {
			break
		}
	}
	return out
}

