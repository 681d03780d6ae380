package models

import "time"

// Project is a construction site whose material movements are tracked.
type Project struct {
	ID        string
	Name      string // "Evka-5", used as the Sheets worksheet title
	Location  string
	IsActive  bool
	CreatedAt time.Time
}

// FieldPhoto is a photo taken at a site: waybill proof shots but also
// general progress photos not tied to a transaction.
type FieldPhoto struct {
	ID         string
	ProjectID  string
	StorageKey string // key in the configured storage backend
	URL        string
	Caption    string
	TakenAt    time.Time
	CreatedAt  time.Time
}
