package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	runStart    string
	runEnd      string
	runLocality string
	runOutput   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute one census and print the JSON report",
	Example: `  census run --start 2025-01-01 --end 2025-06-30
  census run --start 2025-01-01 --end 2025-06-30 --locality "Site-A" --out census.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := time.Parse(time.DateOnly, runStart)
		if err != nil {
			return fmt.Errorf("error parsing start date: %w", err)
		}
		end, err := time.Parse(time.DateOnly, runEnd)
		if err != nil {
			return fmt.Errorf("error parsing end date: %w", err)
		}

		app, err := buildApplication(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		report, err := app.census.ComputeCensus(cmd.Context(), start, end, runLocality)
		if err != nil {
			return fmt.Errorf("census failed: %w", err)
		}

		output, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to generate JSON report: %w", err)
		}
		if runOutput == "" || runOutput == "-" {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return err
		}
		return os.WriteFile(runOutput, append(output, '\n'), 0o644)
	},
}

func init() {
	runCmd.Flags().StringVar(&runStart, "start", "", "period start (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runEnd, "end", "", "period end (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runLocality, "locality", "", `locality scope; empty or "all" for every locality`)
	runCmd.Flags().StringVarP(&runOutput, "out", "o", "", "write the report to a file instead of stdout")
	_ = runCmd.MarkFlagRequired("start")
	_ = runCmd.MarkFlagRequired("end")
}
