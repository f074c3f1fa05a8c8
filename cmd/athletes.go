package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newAthletesCmd scrapes the athlete rosters of every stored club across
// the configured seasons. With --update it instead revisits stored athletes
// whose detail fields are still missing.
func newAthletesCmd() *cobra.Command {
	var update bool

	cmd := &cobra.Command{
		Use:   "athletes",
		Short: "Scrape athlete rosters for the stored clubs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			serveMetrics(a)

			var total int
			if update {
				total, err = a.pipeline.Update(ctx)
			} else {
				total, err = a.pipeline.Athletes(ctx)
			}
			if err != nil {
				return err
			}
			a.logger.Info("done", zap.Int("athletes_affected", total))
			return nil
		},
	}
	cmd.Flags().BoolVar(&update, "update", false, "refresh missing information for stored athletes")
	return cmd
}
