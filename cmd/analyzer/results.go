package main

import (
	"fmt"

	"github.com/spacesedan/sentai/internal/export"
	"github.com/spacesedan/sentai/internal/models"
	"github.com/spacesedan/sentai/internal/sentiment"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results [flags] <run-id>",
	Short: "Export a stored run from DynamoDB",
	Long:  `results reads the rows of a persisted run back in output order and writes them as CSV.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResults,
}

func init() {
	resultsCmd.Flags().StringP("output", "o", "-", "CSV file to write, - for stdout")
}

func runResults(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	runID := args[0]

	store, err := buildResultStore(ctx, cfg)
	if err != nil {
		return err
	}
	rows, err := store.GetRunRows(ctx, runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no stored rows for run %s", runID)
	}

	result := models.AnalysisResult{RunID: runID, Rows: rows, Totals: totalsOf(rows)}

	path, _ := cmd.Flags().GetString("output")
	if path == "-" {
		return export.WriteCSV(cmd.OutOrStdout(), rows, cfg.Location())
	}
	if err := export.SaveCSV(path, rows, cfg.Location()); err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), result)
	return nil
}

func totalsOf(rows []models.ResultRow) models.AggregateTotals {
	var totals models.AggregateTotals
	for _, row := range rows {
		totals = sentiment.Accumulate(totals, models.ClassificationResult{Label: row.Label, Score: row.Score})
	}
	return totals
}
