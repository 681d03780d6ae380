// Package report builds daily material reports for a project: the aggregate
// totals served by the API and an XLSX workbook the site office can hand to
// accounting.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"irsaliye/internal/logger"
	"irsaliye/pkg/models"
)

type transactionSource interface {
	ListByProject(ctx context.Context, projectID string) ([]models.Transaction, error)
	DailySummary(ctx context.Context, projectID string, day time.Time) ([]models.MaterialSummary, error)
}

// Service produces reports from stored transactions.
type Service struct {
	source transactionSource
	log    zerolog.Logger
}

// NewService creates a report service.
func NewService(source transactionSource) *Service {
	return &Service{
		source: source,
		log:    logger.WithComponent("report"),
	}
}

// DailyReport is one project-day: per-material totals plus the movements
// behind them.
type DailyReport struct {
	ProjectID string                   `json:"projectId"`
	Date      string                   `json:"date"`
	Summary   []models.MaterialSummary `json:"summary"`
	Movements []models.Transaction     `json:"movements"`
}

// Daily builds the report for one project and day.
func (s *Service) Daily(ctx context.Context, projectID string, day time.Time) (*DailyReport, error) {
	summary, err := s.source.DailySummary(ctx, projectID, day)
	if err != nil {
		return nil, err
	}

	txs, err := s.source.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &DailyReport{
		ProjectID: projectID,
		Date:      day.Format("2006-01-02"),
		Summary:   summary,
		Movements: sameDay(txs, day),
	}, nil
}

// ExportDailyXLSX renders the daily report as an XLSX workbook: a summary
// sheet with per-material totals and a detail sheet listing every movement.
func (s *Service) ExportDailyXLSX(ctx context.Context, projectID string, day time.Time) ([]byte, error) {
	start := time.Now()

	rep, err := s.Daily(ctx, projectID, day)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()

	const summarySheet = "Özet"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	writeRow(f, summarySheet, 1, []any{"Malzeme", "Birim", "Toplam", "Hareket"})
	for i, sum := range rep.Summary {
		writeRow(f, summarySheet, i+2, []any{sum.Material, sum.Unit, sum.Total, sum.Count})
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 24)
	_ = f.SetColWidth(summarySheet, "B", "D", 12)

	const detailSheet = "Hareketler"
	if _, err := f.NewSheet(detailSheet); err != nil {
		return nil, err
	}
	writeRow(f, detailSheet, 1, []any{"Saat", "Tür", "Plaka", "Malzeme", "Miktar", "Birim", "Tedarikçi", "Fiş No"})
	for i, tx := range rep.Movements {
		writeRow(f, detailSheet, i+2, []any{
			tx.TransactionDate.Format("15:04"),
			tx.Type,
			tx.PlateNumber,
			tx.MaterialType,
			tx.Quantity,
			tx.Unit,
			tx.SupplierName,
			tx.TicketNumber,
		})
	}
	_ = f.SetColWidth(detailSheet, "A", "B", 8)
	_ = f.SetColWidth(detailSheet, "C", "D", 18)
	_ = f.SetColWidth(detailSheet, "G", "G", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.log.Info().
		Str("project_id", projectID).
		Str("date", rep.Date).
		Int("materials", len(rep.Summary)).
		Int("movements", len(rep.Movements)).
		Dur("elapsed", time.Since(start)).
		Msg("Daily report exported")

	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// sameDay keeps only the transactions dated on the given day.
func sameDay(txs []models.Transaction, day time.Time) []models.Transaction {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var out []models.Transaction
	for _, tx := range txs {
		if !tx.TransactionDate.Before(start) && tx.TransactionDate.Before(end) {
			out = append(out, tx)
		}
	}
	return out
}
