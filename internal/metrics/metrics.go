package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "blockfeed"

// Metrics holds the collectors updated by the feed.
type Metrics struct {
	HeadHeight         prometheus.Gauge
	CurrentPage        prometheus.Gauge
	HeadPollFailures   prometheus.Counter
	BlockFetchFailures prometheus.Counter
	StalePagesDropped  prometheus.Counter
	PageFetchDuration  prometheus.Histogram
}

// New registers the feed collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HeadHeight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "head_height",
			Help:      "Last chain head height observed by the head tracker.",
		}),
		CurrentPage: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_page",
			Help:      "Page currently displayed.",
		}),
		HeadPollFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "head_poll_failures_total",
			Help:      "Number of failed chain head polls.",
		}),
		BlockFetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "block_fetch_failures_total",
			Help:      "Number of block fetches omitted from a page because they failed.",
		}),
		StalePagesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_pages_dropped_total",
			Help:      "Number of completed page fetches discarded because a newer request was issued.",
		}),
		PageFetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "page_fetch_duration_seconds",
			Help:      "Time to fetch every block of a page.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}

// Serve exposes the registry on addr until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Failed to shut down metrics server", "error", err)
		}
	}()

	slog.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
