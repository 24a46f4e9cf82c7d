package blockfeed

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manifest-network/blockfeed/internal/client"
	"github.com/manifest-network/blockfeed/internal/config"
)

var headCmd = &cobra.Command{
	Use:   "head",
	Short: "Print the current chain head height",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFeedConfig()
		if err != nil {
			return err
		}
		svc, err := client.New(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to create chain client: %w", err)
		}
		defer svc.Close()

		height, err := svc.CurrentHeight(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get current height: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), height)
		return err
	},
}
