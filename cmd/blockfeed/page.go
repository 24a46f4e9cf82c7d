package blockfeed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/manifest-network/blockfeed/internal/client"
	"github.com/manifest-network/blockfeed/internal/config"
	"github.com/manifest-network/blockfeed/internal/feed"
	"github.com/manifest-network/blockfeed/internal/metrics"
	"github.com/manifest-network/blockfeed/internal/output"
)

var pageCmd = &cobra.Command{
	Use:   "page [number]",
	Short: "Print one page of blocks and exit",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid page number %q", args[0])
			}
			page = n
		}

		flags := cmd.Flags()
		format, err := flags.GetString("output")
		if err != nil {
			return err
		}
		expand, err := flags.GetBool("expand")
		if err != nil {
			return err
		}
		quiet, err := flags.GetBool("quiet")
		if err != nil {
			return err
		}
		cfg, err := config.LoadFeedConfig()
		if err != nil {
			return err
		}

		handler, err := output.New(format, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer handler.Close()

		svc, err := client.New(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to create chain client: %w", err)
		}
		defer svc.Close()

		var progress io.Writer
		if !quiet {
			progress = cmd.ErrOrStderr()
		}
		view, err := fetchOnePage(cmd.Context(), svc, cfg, page, expand, progress)
		if err != nil {
			return err
		}
		return handler.WriteView(view)
	},
}

func init() {
	pageCmd.Flags().StringP("output", "o", output.FormatText, "output format: text or json")
	pageCmd.Flags().Bool("expand", false, "expand every block and transaction")
	pageCmd.Flags().BoolP("quiet", "q", false, "do not display a progress bar")
}

// fetchOnePage reads the current head and fetches a single page. A progress
// bar is drawn on progress when it is not nil.
func fetchOnePage(ctx context.Context, svc client.ChainService, cfg config.FeedConfig, page int, expand bool, progress io.Writer) (feed.View, error) {
	head, err := svc.CurrentHeight(ctx)
	if err != nil {
		return feed.View{}, fmt.Errorf("failed to get current height: %w", err)
	}
	maxPage := feed.MaxPage(head, cfg.PageSize)
	if page > maxPage {
		return feed.View{}, fmt.Errorf("page %d is past the last page %d", page, maxPage)
	}

	req := feed.Plan(head, page, cfg.PageSize)
	fetcher := feed.NewPageFetcher(svc, cfg, metrics.New(prometheus.NewRegistry()))

	var bar *progressbar.ProgressBar
	if progress != nil {
		bar = progressbar.NewOptions(
			len(req.Heights),
			progressbar.OptionSetWriter(progress),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetDescription(fmt.Sprintf("Fetching page %d...", page)),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
		fetcher.OnBlock = func(uint64, error) {
			if err := bar.Add(1); err != nil {
				slog.Warn("Failed to update progress bar", "error", err)
			}
		}
	}

	blocks, errs := fetcher.FetchPage(ctx, req)
	if bar != nil {
		if err := bar.Finish(); err != nil {
			slog.Warn("Failed to finish progress bar", "error", err)
		}
	}
	if len(errs) > 0 {
		slog.Warn("Some blocks could not be fetched", "page", page, "failed", len(errs))
	}

	view := feed.View{
		Head:    head,
		Page:    page,
		MaxPage: maxPage,
		Blocks:  make([]feed.BlockView, len(blocks)),
	}
	for i, block := range blocks {
		txs := make([]bool, len(block.Transactions))
		for j := range txs {
			txs[j] = expand
		}
		view.Blocks[i] = feed.BlockView{Block: block, Expanded: expand, TxExpanded: txs}
	}
	return view, nil
}
