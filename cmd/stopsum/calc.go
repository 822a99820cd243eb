package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"stopsum/pkg/logger"
	"stopsum/pkg/overshoot"
)

var (
	// Calc command flags
	calcThreshold  int
	calcBaseline   int
	calcCards      []int
	calcExclude    []int
	calcMethod     string
	calcWeighting  string
	calcEventFrom  int
	calcEventTo    int
	calcShowVector bool
)

// calcCmd represents the calc command
var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Compute the overshoot distribution for one threshold",
	Long: `Compute the exact distribution of the overshoot: the amount by which the
running total exceeds the threshold when the process stops.

Values are drawn uniformly with replacement from the card set. The first card
is the baseline slot and can be replaced with --baseline. Excluded values are
removed one copy at a time; with --weighting full the remaining draws keep
their original probability and the result holds the probability that no
excluded value was ever drawn.`,
	Example: `  # Standard deck, stop at 21
  stopsum calc --threshold 21

  # Ace counts as 11 and the 8 is never drawn
  stopsum calc --threshold 21 --baseline 11 --exclude 8

  # Cross-check with the breadth-first strategy and print the vector
  stopsum calc --threshold 15 --method breadth --show-vector`,
	Args: cobra.NoArgs,
	RunE: runCalc,
}

func init() {
	rootCmd.AddCommand(calcCmd)

	calcCmd.Flags().IntVarP(&calcThreshold, "threshold", "n", 0, "stopping threshold")
	calcCmd.Flags().IntVarP(&calcBaseline, "baseline", "a", 0, "value of the baseline card (default from config)")
	calcCmd.Flags().IntSliceVar(&calcCards, "cards", nil, "draw-value set (default from config)")
	calcCmd.Flags().IntSliceVar(&calcExclude, "exclude", nil, "values to remove from the draw set, one copy each")
	calcCmd.Flags().StringVar(&calcMethod, "method", "", "evaluation strategy (memo, breadth, walk)")
	calcCmd.Flags().StringVar(&calcWeighting, "weighting", "", "draw weighting after exclusion (active, full)")
	calcCmd.Flags().IntVar(&calcEventFrom, "event-from", 0, "lower bound of an overshoot range to report")
	calcCmd.Flags().IntVar(&calcEventTo, "event-to", 0, "exclusive upper bound of an overshoot range to report")
	calcCmd.Flags().BoolVar(&calcShowVector, "show-vector", false, "print every non-zero entry of the distribution")
	_ = calcCmd.MarkFlagRequired("threshold")
}

func runCalc(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("baseline") {
		flags["baseline"] = calcBaseline
	}
	if cmd.Flags().Changed("cards") {
		flags["cards"] = calcCards
	}
	if calcMethod != "" {
		flags["method"] = calcMethod
	}
	if calcWeighting != "" {
		flags["weighting"] = calcWeighting
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	method, err := overshoot.ParseMethod(cfg.Engine.Method)
	if err != nil {
		return err
	}
	weighting, err := overshoot.ParseWeighting(cfg.Engine.Weighting)
	if err != nil {
		return err
	}

	deck := overshoot.Deck(cfg.Engine.Cards, cfg.Engine.Baseline)
	eng, err := overshoot.New(deck, calcThreshold,
		overshoot.WithWalkLimit(cfg.Engine.WalkLimit),
		overshoot.WithLogger(logger.GetLogger()),
	)
	if err != nil {
		return err
	}

	dist, err := eng.Calculate(
		overshoot.Exclude(calcExclude...),
		overshoot.WithMethod(method),
		overshoot.WithWeighting(weighting),
	)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "For N = %d\n", calcThreshold)
	fmt.Fprintf(out, "cards = %v\n", deck)
	if len(calcExclude) > 0 {
		fmt.Fprintf(out, "excluded = %v (%s weighting)\n", calcExclude, weighting)
	}
	fmt.Fprintf(out, "mass = %.10f\n", dist.Sum())

	mean, sd, err := dist.MeanSD()
	switch {
	case errors.Is(err, overshoot.ErrZeroMass):
		fmt.Fprintln(out, "mean = undefined (no probability mass)")
	case err != nil:
		return err
	default:
		fmt.Fprintf(out, "mean = %.10f\n", mean)
		fmt.Fprintf(out, "sd   = %.10f\n", sd)
	}

	if calcEventTo > calcEventFrom {
		fmt.Fprintf(out, "P(%d <= overshoot < %d) = %.10f\n", calcEventFrom, calcEventTo, dist.Mass(calcEventFrom, calcEventTo))
	}

	if calcShowVector {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "overshoot  probability")
		for i, p := range dist {
			if p == 0 {
				continue
			}
			fmt.Fprintf(out, "%9d  %.10f\n", i, p)
		}
	}

	return nil
}
