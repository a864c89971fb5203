package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paywall-split/paywall-split/internal/split"
	"github.com/paywall-split/paywall-split/internal/variant"
)

var (
	simulateDraws        int
	simulateVariants     string
	simulateDistribution string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate assignments for a traffic split",
	Long: `Draw variants for a number of new visitors and compare the observed
share of each variant with its configured weight.

Example:
  paywall-split simulate --distribution 70,30 --draws 100000`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simulateDistribution, "distribution", getEnvOrDefault("PAYWALL_DISTRIBUTION", split.DefaultDistribution), "comma-separated variant weights")
	simulateCmd.Flags().IntVarP(&simulateDraws, "draws", "n", 100000, "number of visitors to simulate")
	simulateCmd.Flags().StringVar(&simulateVariants, "variants", getEnvOrDefault("PAYWALL_VARIANTS", "a,b,c,d"), "comma-separated variant symbols")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simulateDraws <= 0 {
		return fmt.Errorf("draws must be positive")
	}

	set, err := variant.ParseSet(simulateVariants)
	if err != nil {
		return err
	}
	engine, err := split.New(split.Options{Distribution: simulateDistribution, Variants: set})
	if err != nil {
		return err
	}

	return simulate(cmd.OutOrStdout(), engine, simulateDraws)
}

// simulate resolves n fresh visitors, each with an empty store.
func simulate(out io.Writer, engine *split.Engine, n int) error {
	counts := make(map[variant.Variant]int)
	for i := 0; i < n; i++ {
		counts[engine.Resolve(split.NewMemoryStore(), "")]++
	}

	weights := engine.Distribution()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tWEIGHT\tVISITORS\tSHARE")
	for i, v := range engine.Variants().Variants() {
		weight := 0.0
		if i < len(weights) {
			weight = weights[i]
		}
		fmt.Fprintf(w, "%s\t%.2f%%\t%d\t%.2f%%\n",
			v,
			weight,
			counts[v],
			float64(counts[v])/float64(n)*100,
		)
	}
	return w.Flush()
}
