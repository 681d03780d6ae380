package intake

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"irsaliye/internal/ocr"
	"irsaliye/internal/storage"
	"irsaliye/internal/waybill"
	"irsaliye/pkg/models"
)

type fakeStore struct {
	created    []*models.Transaction
	syncStatus map[string]bool
	syncErrors map[string]string
	createErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		syncStatus: make(map[string]bool),
		syncErrors: make(map[string]string),
	}
}

func (f *fakeStore) Create(ctx context.Context, t *models.Transaction) error {
	if f.createErr != nil {
		return f.createErr
	}
	t.ID = "tx-1"
	t.CreatedAt = time.Date(2026, 2, 6, 9, 30, 0, 0, time.UTC)
	f.created = append(f.created, t)
	return nil
}

func (f *fakeStore) UpdateSyncStatus(ctx context.Context, id string, synced bool, syncErr string) error {
	f.syncStatus[id] = synced
	f.syncErrors[id] = syncErr
	return nil
}

type fakeRecognizer struct {
	recognition *ocr.Recognition
	err         error
}

func (f *fakeRecognizer) Recognize(ctx context.Context, image []byte) (*ocr.Recognition, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.recognition, nil
}

type fakeBackend struct {
	names []string
	err   error
}

func (f *fakeBackend) Upload(ctx context.Context, data []byte, name, contentType string) (storage.UploadResult, error) {
	if f.err != nil {
		return storage.UploadResult{}, f.err
	}
	f.names = append(f.names, name)
	return storage.UploadResult{Key: name, URL: "/uploads/" + name}, nil
}

type fakeSheets struct {
	ensured   []string
	rows      [][]any
	appendErr error
}

func (f *fakeSheets) EnsureSheet(ctx context.Context, title string) error {
	f.ensured = append(f.ensured, title)
	return nil
}

func (f *fakeSheets) AppendRow(ctx context.Context, title string, row []any) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.rows = append(f.rows, row)
	return nil
}

const waybillText = "SEVK İRSALİYESİ\n" +
	"LİDER KUMLAMA LTD\n" +
	"PLAKA: 34 BNU 389\n" +
	"FİŞ NO: 12220\n" +
	"TARTI: 47.100 Kg\n" +
	"TARİH: 06/02/2026"

func tokens(confs ...float64) []waybill.TokenConfidence {
	out := make([]waybill.TokenConfidence, len(confs))
	for i, c := range confs {
		out[i] = waybill.TokenConfidence{Text: "t", Confidence: c}
	}
	return out
}

func TestCreateTransactionFillsEmptyFieldsFromOCR(t *testing.T) {
	store := newFakeStore()
	rec := &fakeRecognizer{recognition: &ocr.Recognition{
		FullText: waybillText,
		Tokens:   tokens(1.0, 0.9, 0.9),
	}}
	sh := &fakeSheets{}
	svc := NewService(store, rec, &fakeBackend{}, sh)

	draft := Draft{
		ProjectID:    "p-1",
		ProjectName:  "Marina Kule",
		Type:         models.TransactionIncoming,
		MaterialType: "MICIR", // caller-supplied, must win over OCR
	}
	tx, err := svc.CreateTransaction(context.Background(), draft, []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	if tx.MaterialType != "MICIR" {
		t.Errorf("MaterialType = %q, caller value must not be overwritten", tx.MaterialType)
	}
	if tx.PlateNumber != "34 BNU 389" {
		t.Errorf("PlateNumber = %q, want %q", tx.PlateNumber, "34 BNU 389")
	}
	if tx.Quantity != 47100 {
		t.Errorf("Quantity = %v, want 47100", tx.Quantity)
	}
	if tx.Unit != "KG" {
		t.Errorf("Unit = %q, want KG", tx.Unit)
	}
	if tx.TicketNumber != "12220" {
		t.Errorf("TicketNumber = %q, want 12220", tx.TicketNumber)
	}
	if tx.OCRData == nil || tx.OCRData.Error != "" {
		t.Fatalf("OCRData = %+v, want populated without error", tx.OCRData)
	}
	if tx.OCRData.Confidence != 90 {
		t.Errorf("OCRData.Confidence = %d, want 90", tx.OCRData.Confidence)
	}

	if len(sh.ensured) != 1 || sh.ensured[0] != "Marina Kule" {
		t.Errorf("ensured sheets = %v, want [Marina Kule]", sh.ensured)
	}
	if len(sh.rows) != 1 {
		t.Fatalf("appended rows = %d, want 1", len(sh.rows))
	}
	if !tx.IsSyncedSheets {
		t.Error("IsSyncedSheets = false, want true")
	}
	if !store.syncStatus["tx-1"] {
		t.Error("sync status not recorded on the stored transaction")
	}
}

func TestCreateTransactionProceedsWhenRecognitionFails(t *testing.T) {
	store := newFakeStore()
	rec := &fakeRecognizer{err: ocr.ErrQuotaExceeded}
	svc := NewService(store, rec, &fakeBackend{}, nil)

	tx, err := svc.CreateTransaction(context.Background(), Draft{ProjectID: "p-1"}, []byte{0xff})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v, recognition failure must not abort intake", err)
	}
	if tx.OCRData == nil || tx.OCRData.Error == "" {
		t.Fatalf("OCRData = %+v, want error marker", tx.OCRData)
	}
	if len(store.created) != 1 {
		t.Errorf("stored transactions = %d, want 1", len(store.created))
	}
}

func TestCreateTransactionWithoutImageSkipsOCRAndUpload(t *testing.T) {
	store := newFakeStore()
	backend := &fakeBackend{}
	svc := NewService(store, &fakeRecognizer{err: errors.New("must not be called")}, backend, nil)

	tx, err := svc.CreateTransaction(context.Background(), Draft{
		ProjectID:    "p-1",
		MaterialType: "KUM",
		Quantity:     12.5,
		Unit:         "TON",
	}, nil)
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if tx.OCRData != nil {
		t.Errorf("OCRData = %+v, want nil without an image", tx.OCRData)
	}
	if len(backend.names) != 0 {
		t.Errorf("uploads = %v, want none", backend.names)
	}
}

func TestCreateTransactionRecordsSheetSyncFailure(t *testing.T) {
	store := newFakeStore()
	sh := &fakeSheets{appendErr: errors.New("googleapi: Error 403")}
	svc := NewService(store, nil, nil, sh)

	tx, err := svc.CreateTransaction(context.Background(), Draft{ProjectID: "p-1"}, nil)
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v, sheet failure must not abort intake", err)
	}
	if tx.IsSyncedSheets {
		t.Error("IsSyncedSheets = true, want false after append failure")
	}
	if tx.SyncError == "" {
		t.Error("SyncError is empty, want the append error recorded")
	}
	if store.syncErrors["tx-1"] == "" {
		t.Error("sync error not persisted")
	}
}

func TestFillMissing(t *testing.T) {
	data := waybill.Fields{
		PlateNumber:  "34 BNU 389",
		MaterialType: "KUM",
		Quantity:     "47100",
		Unit:         "KG",
		SupplierName: "LİDER KUMLAMA",
		TicketNumber: "12220",
	}

	t.Run("fills all empty fields", func(t *testing.T) {
		draft := Draft{}
		filled := fillMissing(&draft, data)

		want := []string{"plate_number", "material_type", "quantity", "unit", "supplier_name", "ticket_number"}
		if !reflect.DeepEqual(filled, want) {
			t.Errorf("filled = %v, want %v", filled, want)
		}
		if draft.Quantity != 47100 {
			t.Errorf("Quantity = %v, want 47100", draft.Quantity)
		}
	})

	t.Run("never overwrites caller values", func(t *testing.T) {
		draft := Draft{
			PlateNumber:  "06 ABC 123",
			MaterialType: "MICIR",
			Quantity:     10,
			Unit:         "TON",
			SupplierName: "BETON AS",
			TicketNumber: "7",
		}
		before := draft
		if filled := fillMissing(&draft, data); filled != nil {
			t.Errorf("filled = %v, want none", filled)
		}
		if draft != before {
			t.Errorf("draft changed: %+v", draft)
		}
	})

	t.Run("ignores unparseable quantity", func(t *testing.T) {
		draft := Draft{}
		filled := fillMissing(&draft, waybill.Fields{Quantity: "47.1.00"})
		if len(filled) != 0 || draft.Quantity != 0 {
			t.Errorf("filled = %v, quantity = %v; want no fill", filled, draft.Quantity)
		}
	})
}

func TestPhotoName(t *testing.T) {
	now := time.Date(2026, 2, 3, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		material string
		plate    string
		want     string
	}{
		{"full", "Mil Kum", "35 BYL 690", "2026-02-03/2026-02-03-MIL-KUM-35BYL690.jpg"},
		{"no plate", "KUM", "", "2026-02-03/2026-02-03-KUM-NoPlate.jpg"},
		{"no material", "", "06 ABC 123", "2026-02-03/2026-02-03-Material-06ABC123.jpg"},
		{"nothing", "", "", "2026-02-03/2026-02-03-Material-NoPlate.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := photoName(now, tt.material, tt.plate); got != tt.want {
				t.Errorf("photoName() = %q, want %q", got, tt.want)
			}
		})
	}
}
