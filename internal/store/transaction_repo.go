package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"irsaliye/pkg/models"
)

// TransactionRepo persists material transactions.
type TransactionRepo struct{ DB *sql.DB }

// NewTransactionRepo creates a transaction repository.
func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{DB: db} }

// Create inserts a transaction, assigning an ID when none is set. The OCR
// result is stored as JSON next to the business columns so a bad extraction
// can be audited and corrected later.
func (r *TransactionRepo) Create(ctx context.Context, t *models.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.TransactionDate.IsZero() {
		t.TransactionDate = now
	}
	if t.Type == "" {
		t.Type = models.TransactionIncoming
	}

	var ocrJSON []byte
	if t.OCRData != nil {
		ocrJSON, _ = json.Marshal(t.OCRData)
	}

	const q = `
insert into material_transactions (
  id, project_id, photo_id, type, material_type, supplier_name,
  plate_number, ticket_number, quantity, unit,
  transaction_date, notes, created_at,
  ocr_data, is_ocr_verified, is_synced_sheets, sync_error
) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`
	_, err := r.DB.ExecContext(ctx, q,
		t.ID, t.ProjectID, nullEmpty(t.PhotoID), t.Type, t.MaterialType, t.SupplierName,
		t.PlateNumber, t.TicketNumber, t.Quantity, t.Unit,
		t.TransactionDate, t.Notes, t.CreatedAt,
		ocrJSON, t.IsOCRVerified, t.IsSyncedSheets, nullEmpty(t.SyncError))
	return err
}

// ListByProject returns a project's most recent transactions, capped at 50.
func (r *TransactionRepo) ListByProject(ctx context.Context, projectID string) ([]models.Transaction, error) {
	const q = `
select id, project_id, coalesce(photo_id,'') as photo_id, type,
       coalesce(material_type,'') as material_type, coalesce(supplier_name,'') as supplier_name,
       coalesce(plate_number,'') as plate_number, coalesce(ticket_number,'') as ticket_number,
       coalesce(quantity,0) as quantity, coalesce(unit,'') as unit,
       transaction_date, coalesce(notes,'') as notes, created_at,
       ocr_data, is_ocr_verified, is_synced_sheets, coalesce(sync_error,'') as sync_error
from material_transactions
where project_id = $1
order by created_at desc
limit 50`
	rows, err := r.DB.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var ocrJSON []byte
		if err := rows.Scan(
			&t.ID, &t.ProjectID, &t.PhotoID, &t.Type,
			&t.MaterialType, &t.SupplierName,
			&t.PlateNumber, &t.TicketNumber,
			&t.Quantity, &t.Unit,
			&t.TransactionDate, &t.Notes, &t.CreatedAt,
			&ocrJSON, &t.IsOCRVerified, &t.IsSyncedSheets, &t.SyncError,
		); err != nil {
			return nil, err
		}
		if len(ocrJSON) > 0 {
			var data models.OCRData
			if err := json.Unmarshal(ocrJSON, &data); err == nil {
				t.OCRData = &data
			}
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// UpdateSyncStatus records the outcome of a Sheets sync attempt.
func (r *TransactionRepo) UpdateSyncStatus(ctx context.Context, id string, synced bool, syncErr string) error {
	const q = `
update material_transactions
set is_synced_sheets = $2, sync_error = $3
where id = $1`
	res, err := r.DB.ExecContext(ctx, q, id, synced, nullEmpty(syncErr))
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return ErrNotFound
	}
	return nil
}

// DailySummary aggregates today's movements per material and unit.
func (r *TransactionRepo) DailySummary(ctx context.Context, projectID string, day time.Time) ([]models.MaterialSummary, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	const q = `
select coalesce(material_type,'') as material, coalesce(unit,'') as unit,
       coalesce(sum(quantity),0) as total, count(id) as count
from material_transactions
where project_id = $1 and transaction_date >= $2 and transaction_date < $3
group by material_type, unit
order by material, unit`
	rows, err := r.DB.QueryContext(ctx, q, projectID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.MaterialSummary
	for rows.Next() {
		var s models.MaterialSummary
		if err := rows.Scan(&s.Material, &s.Unit, &s.Total, &s.Count); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// nullEmpty maps "" to NULL so optional text columns stay NULL-clean.
func nullEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
