package feed

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/manifest-network/blockfeed/internal/client"
	"github.com/manifest-network/blockfeed/internal/metrics"
)

// HeadTracker polls the chain head on a fixed interval while started.
type HeadTracker struct {
	service  client.ChainService
	interval time.Duration
	metrics  *metrics.Metrics
	onHead   func(uint64)

	head atomic.Uint64

	mu      sync.Mutex
	running bool
	ticker  *time.Ticker
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewHeadTracker creates a stopped tracker. onHead is called after every
// successful poll with the height observed.
func NewHeadTracker(service client.ChainService, interval time.Duration, m *metrics.Metrics, onHead func(uint64)) *HeadTracker {
	return &HeadTracker{
		service:  service,
		interval: interval,
		metrics:  m,
		onHead:   onHead,
	}
}

// Start begins polling and refreshes the head immediately. It returns false
// if the tracker was already running.
func (t *HeadTracker) Start(ctx context.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return false
	}

	t.running = true
	t.ticker = time.NewTicker(t.interval)
	t.stopCh = make(chan struct{})

	t.wg.Add(1)
	go t.poll(ctx, t.ticker, t.stopCh)

	slog.Debug("Head polling started", "interval", t.interval)
	return true
}

// Stop cancels the ticker. It returns false if the tracker was not running.
// A poll already in flight is allowed to finish.
func (t *HeadTracker) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return false
	}

	t.ticker.Stop()
	close(t.stopCh)
	t.ticker = nil
	t.stopCh = nil
	t.running = false

	slog.Debug("Head polling stopped")
	return true
}

// Running reports whether the tracker is polling.
func (t *HeadTracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Head returns the last height observed, or 0 if none yet.
func (t *HeadTracker) Head() uint64 {
	return t.head.Load()
}

// Wait blocks until every polling goroutine has returned. Call after Stop.
func (t *HeadTracker) Wait() {
	t.wg.Wait()
}

// Refresh queries the current height once. On failure the last good head is
// kept and the next tick tries again.
func (t *HeadTracker) Refresh(ctx context.Context) error {
	height, err := t.service.CurrentHeight(ctx)
	if err != nil {
		t.metrics.HeadPollFailures.Inc()
		headErr := &HeadFetchError{Err: err}
		slog.Error("Failed to fetch chain head", "error", err, "lastHead", t.head.Load())
		return headErr
	}

	t.head.Store(height)
	t.metrics.HeadHeight.Set(float64(height))
	slog.Debug("Chain head refreshed", "height", height)
	if t.onHead != nil {
		t.onHead(height)
	}
	return nil
}

func (t *HeadTracker) poll(ctx context.Context, ticker *time.Ticker, stopCh <-chan struct{}) {
	defer t.wg.Done()

	// Resuming always starts with a fresh head.
	_ = t.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			_ = t.Refresh(ctx)
		}
	}
}
