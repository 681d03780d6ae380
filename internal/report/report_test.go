package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"irsaliye/pkg/models"
)

type fakeSource struct {
	txs     []models.Transaction
	summary []models.MaterialSummary
}

func (f *fakeSource) ListByProject(ctx context.Context, projectID string) ([]models.Transaction, error) {
	return f.txs, nil
}

func (f *fakeSource) DailySummary(ctx context.Context, projectID string, day time.Time) ([]models.MaterialSummary, error) {
	return f.summary, nil
}

func testDay() time.Time {
	return time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC)
}

func testSource() *fakeSource {
	day := testDay()
	return &fakeSource{
		summary: []models.MaterialSummary{
			{Material: "KUM", Unit: "TON", Total: 30.5, Count: 2},
			{Material: "MICIR", Unit: "KG", Total: 47100, Count: 1},
		},
		txs: []models.Transaction{
			{
				ID:              "t1",
				Type:            models.TransactionIncoming,
				MaterialType:    "KUM",
				Quantity:        18.5,
				Unit:            "TON",
				PlateNumber:     "34 BNU 389",
				TransactionDate: day.Add(9 * time.Hour),
			},
			{
				ID:              "t2",
				Type:            models.TransactionIncoming,
				MaterialType:    "KUM",
				Quantity:        12,
				Unit:            "TON",
				TransactionDate: day.Add(14 * time.Hour),
			},
			{
				ID:              "old",
				MaterialType:    "KUM",
				TransactionDate: day.AddDate(0, 0, -3),
			},
		},
	}
}

func TestDailyFiltersToRequestedDay(t *testing.T) {
	svc := NewService(testSource())

	rep, err := svc.Daily(context.Background(), "p-1", testDay())
	if err != nil {
		t.Fatalf("Daily() error = %v", err)
	}

	if rep.Date != "2026-02-06" {
		t.Errorf("Date = %q, want 2026-02-06", rep.Date)
	}
	if len(rep.Summary) != 2 {
		t.Errorf("summary rows = %d, want 2", len(rep.Summary))
	}
	if len(rep.Movements) != 2 {
		t.Fatalf("movements = %d, want 2 (older transaction must be excluded)", len(rep.Movements))
	}
	for _, tx := range rep.Movements {
		if tx.ID == "old" {
			t.Error("movement from another day included in the report")
		}
	}
}

func TestExportDailyXLSX(t *testing.T) {
	svc := NewService(testSource())

	data, err := svc.ExportDailyXLSX(context.Background(), "p-1", testDay())
	if err != nil {
		t.Fatalf("ExportDailyXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("workbook does not open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Özet")
	if err != nil {
		t.Fatalf("summary sheet missing: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("summary rows = %d, want header + 2", len(rows))
	}
	if rows[1][0] != "KUM" || rows[1][1] != "TON" {
		t.Errorf("first summary row = %v", rows[1])
	}

	detail, err := f.GetRows("Hareketler")
	if err != nil {
		t.Fatalf("detail sheet missing: %v", err)
	}
	if len(detail) != 3 {
		t.Fatalf("detail rows = %d, want header + 2", len(detail))
	}
	if detail[1][2] != "34 BNU 389" {
		t.Errorf("first movement plate = %q, want 34 BNU 389", detail[1][2])
	}
}
