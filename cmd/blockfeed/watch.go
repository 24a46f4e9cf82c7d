package blockfeed

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/manifest-network/blockfeed/internal/client"
	"github.com/manifest-network/blockfeed/internal/config"
	"github.com/manifest-network/blockfeed/internal/feed"
	"github.com/manifest-network/blockfeed/internal/metrics"
	"github.com/manifest-network/blockfeed/internal/output"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the chain head and browse pages interactively",
	Long: `Shows the latest page of blocks and keeps it current while on page 1.
Type a command and press enter:
  n          next (older) page
  p          previous (newer) page
  b <i>      expand or collapse block i
  t <i> <j>  expand or collapse transaction j of block i
  q          quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFeedConfig()
		if err != nil {
			return err
		}
		format, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}
		handler, err := output.New(format, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer handler.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := client.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to create chain client: %w", err)
		}
		defer svc.Close()

		reg := prometheus.NewRegistry()
		m := metrics.New(reg)
		if cfg.MetricsAddr != "" {
			go func() {
				if err := metrics.Serve(ctx, cfg.MetricsAddr, reg); err != nil {
					slog.Error("Metrics server failed", "error", err)
				}
			}()
		}

		slog.Info("Watching chain head", "backend", cfg.Backend, "pollInterval", cfg.PollInterval, "pageSize", cfg.PageSize)
		return watch(ctx, svc, cfg, m, handler, cmd.InOrStdin())
	},
}

func init() {
	watchCmd.Flags().StringP("output", "o", output.FormatText, "output format: text or json")
}

// watch runs the interactive loop until the user quits, input ends or ctx is done.
func watch(ctx context.Context, svc client.ChainService, cfg config.FeedConfig, m *metrics.Metrics, out output.OutputHandler, in io.Reader) error {
	c := feed.NewController(svc, cfg, m)
	c.Start(ctx)
	defer c.Close()

	lines := make(chan string)
	go readLines(ctx, in, lines)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.Updates():
			if err := out.WriteView(c.View()); err != nil {
				return fmt.Errorf("failed to write view: %w", err)
			}
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			cmd, err := parseCommand(line)
			if err != nil {
				if err := out.WriteMessage(err.Error()); err != nil {
					return err
				}
				continue
			}
			switch cmd.kind {
			case cmdQuit:
				return nil
			case cmdRefresh:
				if err := out.WriteView(c.View()); err != nil {
					return fmt.Errorf("failed to write view: %w", err)
				}
			default:
				if msg := apply(c, cmd); msg != "" {
					if err := out.WriteMessage(msg); err != nil {
						return err
					}
				}
			}
		}
	}
}

func readLines(ctx context.Context, in io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("Failed to read input", "error", err)
	}
}
