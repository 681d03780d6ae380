package models

import (
	"time"

	"irsaliye/internal/waybill"
)

// Transaction types
const (
	TransactionIncoming = "IN"  // material delivered to the site (giriş)
	TransactionOutgoing = "OUT" // material hauled away (çıkış/hafriyat)
)

// OCRData captures the full recognition result stored alongside a
// transaction for debugging and later manual correction. When recognition
// fails the Error field carries the reason and the rest stays empty; a
// failed OCR run never blocks the transaction itself.
type OCRData struct {
	RawText    string         `json:"rawText,omitempty"`
	Confidence int            `json:"confidence,omitempty"`
	Extracted  waybill.Fields `json:"extracted,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Transaction is one material movement recorded against a project: a truck
// arriving with sand, a load of excavation spoil leaving, etc. Most fields
// are optional because they are filled from a noisy waybill photo and
// corrected later.
type Transaction struct {
	ID        string // Unique transaction identifier
	ProjectID string // Owning project
	PhotoID   string // Storage key of the waybill photo, if one was taken

	// Transaction details
	Type         string  // TransactionIncoming or TransactionOutgoing
	MaterialType string  // "HAFRIYAT", "MIL_KUM", "TUGLA", ...
	SupplierName string  // "NALDOKEN", "OZELIZ", ...
	PlateNumber  string  // "35 BYL 690"
	TicketNumber string  // weighbridge ticket serial
	Quantity     float64 // 18.5
	Unit         string  // TON, M3, ADET

	// Metadata
	TransactionDate time.Time
	Notes           string
	CreatedAt       time.Time

	// OCR integration
	OCRData       *OCRData // full recognition result, nil when no photo
	IsOCRVerified bool     // a person confirmed the auto-filled values

	// Sheets sync status
	IsSyncedSheets bool
	SyncError      string
}

// MaterialSummary is one aggregated row of a daily report: total quantity
// and movement count per material and unit.
type MaterialSummary struct {
	Material string  `json:"material"`
	Unit     string  `json:"unit"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}
