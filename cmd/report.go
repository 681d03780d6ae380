package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"irsaliye/internal/config"
	"irsaliye/internal/logger"
	"irsaliye/internal/report"
	"irsaliye/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report [project-id]",
	Short: "Show or export a project's daily material report",
	Long: `Build the daily material report for a project: per-material totals plus
the individual movements behind them. Prints a summary to stdout, or writes
an XLSX workbook when an output path is given.

Requires DATABASE_URL to be set.`,
	Example: `  # Print today's summary
  irsaliye report 7f3c2a

  # A specific day, exported as XLSX
  irsaliye report 7f3c2a --date 2026-02-06 -o rapor.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("output", "o", "", "Write the report as XLSX to this path instead of printing")
	reportCmd.Flags().String("date", "", "Report day as YYYY-MM-DD (default: today)")
}

func runReport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("report")

	projectID := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	dateStr, _ := cmd.Flags().GetString("date")

	day := time.Now()
	if dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
		}
		day = parsed
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for reports")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	svc := report.NewService(store.NewTransactionRepo(db))

	if outputPath != "" {
		data, err := svc.ExportDailyXLSX(ctx, projectID, day)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write report file: %w", err)
		}
		log.Info().
			Str("project_id", projectID).
			Str("file", outputPath).
			Msg("Report written")
		fmt.Printf("Report written to %s\n", outputPath)
		return nil
	}

	rep, err := svc.Daily(ctx, projectID, day)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	fmt.Printf("Daily report for %s (%s)\n\n", projectID, rep.Date)
	if len(rep.Summary) == 0 {
		fmt.Println("No material movements recorded.")
		return nil
	}
	fmt.Printf("%-24s %-8s %12s %8s\n", "MALZEME", "BIRIM", "TOPLAM", "HAREKET")
	for _, s := range rep.Summary {
		fmt.Printf("%-24s %-8s %12.2f %8d\n", s.Material, s.Unit, s.Total, s.Count)
	}
	return nil
}
