package main

import (
	"github.com/spf13/cobra"

	"stopsum/pkg/logger"
	"stopsum/pkg/report"
)

var (
	// Report command flags
	reportThresholds []int
	reportBaselines  []int
	reportEventFrom  int
	reportEventTo    int
	reportCondition  int
	reportFormat     string
	reportMethod     string
	reportWorkers    int
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize overshoot distributions over a scenario grid",
	Long: `Evaluate every combination of threshold and baseline card and print the
mean and standard deviation of the overshoot for each.

When the condition value is part of a scenario's deck the report also gives
the probability of the event range given that the value was drawn at least
once before the process stopped.`,
	Example: `  # Default grid: thresholds 21 and 1000, baselines 1 and 11
  stopsum report

  # Single scenario as JSON
  stopsum report --thresholds 21 --baselines 1 --format json

  # Probability of an overshoot in [0, 3) given that a 4 was drawn
  stopsum report --event-from 0 --event-to 3 --condition 4`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().IntSliceVar(&reportThresholds, "thresholds", nil, "stopping thresholds (default from config)")
	reportCmd.Flags().IntSliceVar(&reportBaselines, "baselines", nil, "baseline card values (default from config)")
	reportCmd.Flags().IntVar(&reportEventFrom, "event-from", 0, "lower bound of the event overshoot range")
	reportCmd.Flags().IntVar(&reportEventTo, "event-to", 0, "exclusive upper bound of the event overshoot range")
	reportCmd.Flags().IntVar(&reportCondition, "condition", 0, "value that must have been drawn")
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "", "output format (text, yaml, json)")
	reportCmd.Flags().StringVar(&reportMethod, "method", "", "evaluation strategy (memo, breadth, walk)")
	reportCmd.Flags().IntVar(&reportWorkers, "workers", 0, "scenarios evaluated concurrently (default from config)")
}

func runReport(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if len(reportThresholds) > 0 {
		flags["thresholds"] = reportThresholds
	}
	if len(reportBaselines) > 0 {
		flags["baselines"] = reportBaselines
	}
	if cmd.Flags().Changed("event-from") {
		flags["event-from"] = reportEventFrom
	}
	if cmd.Flags().Changed("event-to") {
		flags["event-to"] = reportEventTo
	}
	if reportCondition > 0 {
		flags["condition"] = reportCondition
	}
	if reportFormat != "" {
		flags["format"] = reportFormat
	}
	if reportMethod != "" {
		flags["method"] = reportMethod
	}
	if reportWorkers > 0 {
		flags["workers"] = reportWorkers
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	runner, err := report.NewRunner(cfg.Engine, logger.GetLogger())
	if err != nil {
		return err
	}
	rep, err := runner.RunContext(cmd.Context(), cfg.Report)
	if err != nil {
		return err
	}

	return report.Render(cmd.OutOrStdout(), rep, cfg.Report.Format)
}
