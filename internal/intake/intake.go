// Package intake implements the transaction intake workflow: a field worker
// submits a material movement, usually with a waybill photo, and the backend
// stores the photo, runs text recognition over it, auto-fills whatever
// fields the worker left empty, persists the transaction and mirrors it to
// the project's worksheet.
//
// Two policies shape the flow:
//
//   - OCR is fallback enrichment, never an override: an extracted value is
//     applied only when the caller did not supply one.
//   - Recognition failure (including quota exhaustion) never blocks the
//     transaction. The error is recorded on the stored record and intake
//     proceeds; the waybill can be re-read later.
package intake

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"irsaliye/internal/logger"
	"irsaliye/internal/ocr"
	"irsaliye/internal/storage"
	"irsaliye/internal/waybill"
	"irsaliye/pkg/models"
)

// Draft is the caller-supplied part of a new transaction. Empty fields are
// candidates for OCR auto-fill.
type Draft struct {
	ProjectID   string
	ProjectName string // worksheet title; falls back to ProjectID

	Type         string
	MaterialType string
	SupplierName string
	PlateNumber  string
	TicketNumber string
	Quantity     float64
	Unit         string
	Notes        string

	TransactionDate time.Time
}

type transactionStore interface {
	Create(ctx context.Context, t *models.Transaction) error
	UpdateSyncStatus(ctx context.Context, id string, synced bool, syncErr string) error
}

type rowAppender interface {
	EnsureSheet(ctx context.Context, title string) error
	AppendRow(ctx context.Context, title string, row []any) error
}

// Service runs the intake workflow. Recognizer, storage and sheets are all
// optional: a nil collaborator simply skips that step, which keeps intake
// working when an integration is not configured.
type Service struct {
	store      transactionStore
	recognizer ocr.Recognizer
	photos     storage.Backend
	sheets     rowAppender
	log        zerolog.Logger
}

// NewService creates an intake service.
func NewService(store transactionStore, recognizer ocr.Recognizer, photos storage.Backend, sheets rowAppender) *Service {
	return &Service{
		store:      store,
		recognizer: recognizer,
		photos:     photos,
		sheets:     sheets,
		log:        logger.WithComponent("intake"),
	}
}

// CreateTransaction stores one material movement. When an image is supplied
// it is uploaded and read; extracted fields fill the gaps in the draft.
func (s *Service) CreateTransaction(ctx context.Context, draft Draft, image []byte) (*models.Transaction, error) {
	var photoURL, photoKey string
	var ocrData *models.OCRData

	if len(image) > 0 {
		if s.photos != nil {
			name := photoName(time.Now(), draft.MaterialType, draft.PlateNumber)
			uploaded, err := s.photos.Upload(ctx, image, name, "image/jpeg")
			if err != nil {
				return nil, err
			}
			photoURL, photoKey = uploaded.URL, uploaded.Key
		}

		if s.recognizer != nil {
			ocrData = s.recognize(ctx, image, &draft)
		}
	}

	tx := &models.Transaction{
		ProjectID:       draft.ProjectID,
		PhotoID:         photoKey,
		Type:            draft.Type,
		MaterialType:    draft.MaterialType,
		SupplierName:    draft.SupplierName,
		PlateNumber:     draft.PlateNumber,
		TicketNumber:    draft.TicketNumber,
		Quantity:        draft.Quantity,
		Unit:            draft.Unit,
		Notes:           draft.Notes,
		TransactionDate: draft.TransactionDate,
		OCRData:         ocrData,
	}
	if err := s.store.Create(ctx, tx); err != nil {
		return nil, err
	}

	s.syncToSheets(ctx, tx, draft.ProjectName, photoURL)

	return tx, nil
}

// recognize reads the waybill photo and merges extracted fields into the
// draft. Failures are converted into an error marker on the stored record;
// intake continues regardless.
func (s *Service) recognize(ctx context.Context, image []byte, draft *Draft) *models.OCRData {
	recognition, err := s.recognizer.Recognize(ctx, image)
	if err != nil {
		s.log.Error().Err(err).Msg("Waybill recognition failed, creating transaction without OCR data")
		return &models.OCRData{Error: err.Error()}
	}

	result := waybill.Extract(recognition.FullText, recognition.Tokens)
	filled := fillMissing(draft, result.Data)

	s.log.Info().
		Int("confidence", result.Confidence).
		Strs("auto_filled", filled).
		Msg("Waybill fields extracted")

	return &models.OCRData{
		RawText:    result.Text,
		Confidence: result.Confidence,
		Extracted:  result.Data,
	}
}

// fillMissing applies extracted values to empty draft fields only and
// returns the names of the fields it filled.
func fillMissing(draft *Draft, data waybill.Fields) []string {
	var filled []string
	if draft.PlateNumber == "" && data.PlateNumber != "" {
		draft.PlateNumber = data.PlateNumber
		filled = append(filled, "plate_number")
	}
	if draft.MaterialType == "" && data.MaterialType != "" {
		draft.MaterialType = data.MaterialType
		filled = append(filled, "material_type")
	}
	if draft.Quantity == 0 && data.Quantity != "" {
		if qty, err := strconv.ParseFloat(data.Quantity, 64); err == nil {
			draft.Quantity = qty
			filled = append(filled, "quantity")
		}
	}
	if draft.Unit == "" && data.Unit != "" {
		draft.Unit = data.Unit
		filled = append(filled, "unit")
	}
	if draft.SupplierName == "" && data.SupplierName != "" {
		draft.SupplierName = data.SupplierName
		filled = append(filled, "supplier_name")
	}
	if draft.TicketNumber == "" && data.TicketNumber != "" {
		draft.TicketNumber = data.TicketNumber
		filled = append(filled, "ticket_number")
	}
	return filled
}

// syncToSheets mirrors the transaction to the project worksheet and records
// the outcome on the transaction. Sheet failures are not fatal.
func (s *Service) syncToSheets(ctx context.Context, tx *models.Transaction, projectName, photoURL string) {
	if s.sheets == nil || tx.ProjectID == "" {
		return
	}

	title := projectName
	if title == "" {
		title = tx.ProjectID
	}

	when := tx.TransactionDate
	if when.IsZero() {
		when = tx.CreatedAt
	}
	row := []any{
		when.Format("2006-01-02"),
		when.Format("15:04"),
		title,
		tx.PlateNumber,
		tx.MaterialType,
		tx.Quantity,
		tx.Unit,
		tx.SupplierName,
		tx.TicketNumber,
		photoURL,
	}

	var syncErr string
	if err := s.sheets.EnsureSheet(ctx, title); err != nil {
		syncErr = err.Error()
	} else if err := s.sheets.AppendRow(ctx, title, row); err != nil {
		syncErr = err.Error()
	}

	tx.IsSyncedSheets = syncErr == ""
	tx.SyncError = syncErr
	if err := s.store.UpdateSyncStatus(ctx, tx.ID, tx.IsSyncedSheets, syncErr); err != nil {
		s.log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Failed to record sheet sync status")
	}
	if syncErr != "" {
		s.log.Error().Str("error", syncErr).Str("transaction_id", tx.ID).Msg("Sheets sync failed")
	}
}

// photoName builds the storage name for a waybill photo:
// "2026-02-03/2026-02-03-MIL-KUM-35BYL690.jpg".
func photoName(now time.Time, materialType, plateNumber string) string {
	dateStr := now.Format("2006-01-02")

	safePlate := strings.ToUpper(strings.Join(strings.Fields(plateNumber), ""))
	if safePlate == "" {
		safePlate = "NoPlate"
	}
	safeMaterial := strings.ToUpper(strings.Join(strings.Fields(materialType), "-"))
	if safeMaterial == "" {
		safeMaterial = "Material"
	}

	return dateStr + "/" + dateStr + "-" + safeMaterial + "-" + safePlate + ".jpg"
}
