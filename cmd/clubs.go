package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newClubsCmd scrapes the season-wide club listings.
func newClubsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clubs",
		Short: "Scrape the club listings for the configured seasons",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			serveMetrics(a)

			total, err := a.pipeline.Clubs(ctx)
			if err != nil {
				return err
			}
			a.logger.Info("done", zap.Int("clubs_affected", total))
			return nil
		},
	}
}
