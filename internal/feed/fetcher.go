package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/manifest-network/blockfeed/internal/client"
	"github.com/manifest-network/blockfeed/internal/config"
	"github.com/manifest-network/blockfeed/internal/metrics"
	"github.com/manifest-network/blockfeed/internal/models"
)

const (
	retryDelay    = 200 * time.Millisecond
	maxRetryDelay = 2 * time.Second
)

// PageFetcher fetches every block of a page concurrently and joins the results.
type PageFetcher struct {
	service client.ChainService
	cfg     config.FeedConfig
	metrics *metrics.Metrics

	// OnBlock, when set, is called once per height as soon as its fetch
	// settles, successful or not.
	OnBlock func(height uint64, err error)
}

func NewPageFetcher(service client.ChainService, cfg config.FeedConfig, m *metrics.Metrics) *PageFetcher {
	return &PageFetcher{service: service, cfg: cfg, metrics: m}
}

// FetchPage fetches the blocks planned by req. It returns once every fetch has
// settled; blocks that failed are left out and reported in the returned
// errors. The blocks keep the order of req.Heights.
func (f *PageFetcher) FetchPage(ctx context.Context, req FetchRequest) ([]*models.Block, []error) {
	if req.Head == 0 || len(req.Heights) == 0 {
		return nil, nil
	}

	start := time.Now()
	results := make([]*models.Block, len(req.Heights))
	failures := make([]error, len(req.Heights))

	var eg errgroup.Group
	eg.SetLimit(int(max(f.cfg.MaxConcurrency, 1)))
	for i, height := range req.Heights {
		eg.Go(func() error {
			block, err := f.fetchBlockWithRetry(ctx, height)
			if err != nil {
				failures[i] = &BlockFetchError{Height: height, Err: err}
				f.metrics.BlockFetchFailures.Inc()
				if !errors.Is(err, context.Canceled) {
					slog.Error("Failed to fetch block", "height", height, "page", req.Page, "error", err)
				}
			} else {
				results[i] = block
			}
			if f.OnBlock != nil {
				f.OnBlock(height, err)
			}
			// Failures never cancel the rest of the page.
			return nil
		})
	}
	_ = eg.Wait()

	blocks := make([]*models.Block, 0, len(results))
	for _, block := range results {
		if block != nil {
			blocks = append(blocks, block)
		}
	}
	var errs []error
	for _, err := range failures {
		if err != nil {
			errs = append(errs, err)
		}
	}

	f.metrics.PageFetchDuration.Observe(time.Since(start).Seconds())
	slog.Debug("Fetched page", "page", req.Page, "head", req.Head, "blocks", len(blocks), "failed", len(errs))
	return blocks, errs
}

// fetchBlockWithRetry fetches a single block, retrying up to cfg.MaxRetries times.
func (f *PageFetcher) fetchBlockWithRetry(ctx context.Context, height uint64) (*models.Block, error) {
	var lastErr error
	delay := retryDelay

	for attempt := uint(0); attempt <= f.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		block, err := f.service.Block(ctx, height, f.cfg.IncludeTransactions)
		if err == nil {
			return block, nil
		}
		// A missing block will not appear by asking again.
		if errors.Is(err, client.ErrBlockNotFound) {
			return nil, err
		}
		lastErr = err

		if attempt < f.cfg.MaxRetries {
			slog.Warn("Retrying block fetch", "height", height, "attempt", attempt+1, "error", err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = min(delay*2, maxRetryDelay)
		}
	}

	if f.cfg.MaxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", f.cfg.MaxRetries+1, lastErr)
}
