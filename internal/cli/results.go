package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paywall-split/paywall-split/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show impressions and conversions per variant",
	Long: `Show impressions, conversions and conversion rate for each variant,
followed by conversions per plan.`,
	Args: cobra.NoArgs,
	RunE: runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		variantStats, err := s.GetVariantStats(ctx)
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}
		planStats, err := s.GetPlanStats(ctx)
		if err != nil {
			return fmt.Errorf("failed to get plan stats: %w", err)
		}

		return printResults(cmd.OutOrStdout(), variantStats, planStats)
	})
}

func printResults(out io.Writer, variants []store.VariantStats, plans []store.PlanStats) error {
	if len(variants) == 0 {
		fmt.Fprintln(out, "No events yet.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Events arrive once the script is on your site:")
		fmt.Fprintln(out, "  <script src=\"YOUR_SERVER/paywall-split.js\" defer></script>")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tIMPRESSIONS\tCONVERSIONS\tRATE")
	for _, v := range variants {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			v.Variant,
			formatNumber(v.Impressions),
			formatNumber(v.Conversions),
			formatPercent(v.Rate()),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(plans) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tPLAN\tCONVERSIONS")
	for _, p := range plans {
		plan := p.PlanID
		if plan == "" {
			plan = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Variant, plan, formatNumber(p.Conversions))
	}
	return w.Flush()
}

func formatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}

func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}
