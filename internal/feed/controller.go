package feed

import (
	"context"
	"log/slog"
	"sync"

	"github.com/manifest-network/blockfeed/internal/client"
	"github.com/manifest-network/blockfeed/internal/config"
	"github.com/manifest-network/blockfeed/internal/metrics"
	"github.com/manifest-network/blockfeed/internal/models"
)

// BlockView is one displayed block with its expand flags.
type BlockView struct {
	Block      *models.Block
	Expanded   bool
	TxExpanded []bool
}

// View is a consistent snapshot of the controller state for presentation.
type View struct {
	Head    uint64
	Page    int
	MaxPage int
	Loading bool
	Polling bool
	Blocks  []BlockView
}

type pageKey struct {
	head uint64
	page int
}

// Controller keeps the displayed page in sync with the chain head.
//
// Every change of head or page re-plans the page and issues a new fetch
// tagged with an increasing sequence number; a completed fetch is published
// only if it is still the latest one issued. Head polling runs while page 1
// is shown and is paused on older pages so their height ranges stay put.
type Controller struct {
	tracker  *HeadTracker
	fetcher  *PageFetcher
	metrics  *metrics.Metrics
	pageSize int

	// navMu serializes navigation so the tracker state follows the last move.
	navMu sync.Mutex

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	head     uint64
	page     int
	loading  bool
	inflight bool
	seq      uint64
	blocks   []*models.Block
	shown    pageKey
	expand   *ExpandState
	closed   bool

	wg        sync.WaitGroup
	updates   chan struct{}
	closeOnce sync.Once
}

// NewController wires a head tracker and a page fetcher around service.
func NewController(service client.ChainService, cfg config.FeedConfig, m *metrics.Metrics) *Controller {
	c := &Controller{
		fetcher:  NewPageFetcher(service, cfg, m),
		metrics:  m,
		pageSize: cfg.PageSize,
		page:     1,
		expand:   NewExpandState(),
		updates:  make(chan struct{}, 1),
	}
	c.tracker = NewHeadTracker(service, cfg.PollInterval, m, c.handleHead)
	m.CurrentPage.Set(1)
	return c
}

// Start performs the initial load and begins head polling.
func (c *Controller) Start(ctx context.Context) {
	c.navMu.Lock()
	defer c.navMu.Unlock()

	c.mu.Lock()
	if c.closed || c.ctx != nil {
		c.mu.Unlock()
		return
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	// Loading until the first head arrives and its page is fetched.
	c.loading = true
	runCtx := c.ctx
	c.mu.Unlock()

	c.tracker.Start(runCtx)
}

// Close stops head polling and waits for outstanding work. Safe to call more than once.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		if c.cancel != nil {
			c.cancel()
		}
		c.mu.Unlock()

		c.navMu.Lock()
		c.tracker.Stop()
		c.navMu.Unlock()

		c.tracker.Wait()
		c.wg.Wait()
		slog.Debug("Block feed controller closed")
	})
}

// Updates signals after every state change visible in View. Signals coalesce.
func (c *Controller) Updates() <-chan struct{} {
	return c.updates
}

// NextPage moves to the next older page if it exists and reports whether it moved.
func (c *Controller) NextPage() bool {
	return c.navigate(func(page int, head uint64) (int, bool) {
		next := page + 1
		return next, next <= MaxPage(head, c.pageSize)
	})
}

// PreviousPage moves to the next newer page if it exists and reports whether it moved.
func (c *Controller) PreviousPage() bool {
	return c.navigate(func(page int, _ uint64) (int, bool) {
		prev := page - 1
		return prev, prev >= 1
	})
}

func (c *Controller) navigate(move func(page int, head uint64) (int, bool)) bool {
	c.navMu.Lock()
	defer c.navMu.Unlock()

	c.mu.Lock()
	// Loading shows immediately, even for a move that is then rejected.
	c.loading = true
	target, ok := move(c.page, c.head)
	if ok {
		c.page = target
		c.metrics.CurrentPage.Set(float64(target))
		c.schedule()
	} else {
		c.loading = c.inflight
	}
	page, ctx, closed := c.page, c.ctx, c.closed
	c.mu.Unlock()

	if !closed && ctx != nil {
		if page == 1 {
			c.tracker.Start(ctx)
		} else {
			c.tracker.Stop()
		}
	}
	c.notify()
	return ok
}

// ToggleBlockExpand flips the expand flag of block i on the current page.
// It reports false if there is no such block.
func (c *Controller) ToggleBlockExpand(i int) bool {
	c.mu.Lock()
	if i < 0 || i >= len(c.blocks) {
		c.mu.Unlock()
		return false
	}
	c.expand.ToggleBlock(i)
	c.mu.Unlock()
	c.notify()
	return true
}

// ToggleTransactionExpand flips the expand flag of transaction j in block i.
// It reports false if there is no such transaction.
func (c *Controller) ToggleTransactionExpand(i, j int) bool {
	c.mu.Lock()
	if i < 0 || i >= len(c.blocks) || j < 0 || j >= len(c.blocks[i].Transactions) {
		c.mu.Unlock()
		return false
	}
	c.expand.ToggleTransaction(i, j)
	c.mu.Unlock()
	c.notify()
	return true
}

// View returns a snapshot of the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Head:    c.head,
		Page:    c.page,
		MaxPage: MaxPage(c.head, c.pageSize),
		Loading: c.loading,
		Polling: c.tracker.Running(),
		Blocks:  make([]BlockView, len(c.blocks)),
	}
	for i, block := range c.blocks {
		txs := make([]bool, len(block.Transactions))
		for j := range txs {
			txs[j] = c.expand.TransactionExpanded(i, j)
		}
		v.Blocks[i] = BlockView{
			Block:      block,
			Expanded:   c.expand.BlockExpanded(i),
			TxExpanded: txs,
		}
	}
	return v
}

func (c *Controller) handleHead(height uint64) {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return
	case height == c.head:
		c.loading = c.inflight
	case height < c.head:
		// A lagging node or a poll issued before a restart must not rewind the head.
		slog.Debug("Ignoring head behind current head", "height", height, "head", c.head)
		c.loading = c.inflight
	case c.head != 0 && c.page != 1:
		// Moving the head would shift which heights this page shows.
		slog.Debug("Ignoring head update while paging history", "height", height, "page", c.page)
		c.loading = c.inflight
	default:
		c.head = height
		c.schedule()
	}
	c.mu.Unlock()
	c.notify()
}

// schedule issues a fetch for the current (head, page). Callers hold c.mu.
func (c *Controller) schedule() {
	if c.closed || c.ctx == nil || c.head == 0 {
		c.loading = c.inflight
		return
	}

	req := Plan(c.head, c.page, c.pageSize)
	c.seq++
	req.Seq = c.seq
	c.inflight = true
	c.loading = true

	c.wg.Add(1)
	go func(ctx context.Context) {
		defer c.wg.Done()
		blocks, _ := c.fetcher.FetchPage(ctx, req)
		c.publish(req, blocks)
	}(c.ctx)
}

func (c *Controller) publish(req FetchRequest, blocks []*models.Block) {
	c.mu.Lock()
	if req.Seq != c.seq {
		latest := c.seq
		c.mu.Unlock()
		c.metrics.StalePagesDropped.Inc()
		slog.Debug("Dropping stale page", "head", req.Head, "page", req.Page, "seq", req.Seq, "latest", latest)
		return
	}

	key := pageKey{head: req.Head, page: req.Page}
	if key != c.shown {
		c.expand.Reset()
	}
	c.blocks = blocks
	c.shown = key
	c.inflight = false
	c.loading = false
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}
