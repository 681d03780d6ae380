// Package sheets mirrors material transactions into a shared Google
// Spreadsheet, one worksheet per project, so site managers can follow
// deliveries without touching the backend.
package sheets

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"irsaliye/internal/logger"
)

// HeaderRow is written as the first row of every newly created worksheet.
var HeaderRow = []any{
	"Tarih", "Saat", "Proje", "Plaka", "Malzeme", "Miktar", "Birim", "Tedarikçi", "Fiş No", "Foto",
}

// Service handles Google Sheets operations against one spreadsheet.
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// NewService creates a Sheets service for the given spreadsheet ID using
// service-account credentials from the environment.
func NewService(ctx context.Context, spreadsheetID string) (*Service, error) {
	const op = "NewService"

	if spreadsheetID == "" {
		return nil, fmt.Errorf("%s: spreadsheet ID is empty", op)
	}

	var creds []byte
	var err error
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           logger.WithComponent("sheets"),
	}, nil
}

// EnsureSheet creates the named worksheet with its header row if it does not
// exist yet. Existing worksheets are left untouched.
func (s *Service) EnsureSheet(ctx context.Context, title string) error {
	const op = "EnsureSheet"

	doc, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to load spreadsheet: %w", op, err)
	}
	for _, sh := range doc.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}

	_, err = s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: title},
				},
			},
		},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to add sheet %q: %w", op, title, err)
	}

	s.log.Info().Str("sheet", title).Msg("Created worksheet")

	return s.AppendRow(ctx, title, HeaderRow)
}

// AppendRow appends one row to the named worksheet.
func (s *Service) AppendRow(ctx context.Context, title string, row []any) error {
	const op = "AppendRow"

	rangeRef := "A:J"
	if title != "" {
		rangeRef = fmt.Sprintf("'%s'!A:J", title)
	}

	_, err := s.sheetsService.Spreadsheets.Values.Append(
		s.spreadsheetID,
		rangeRef,
		&sheets.ValueRange{Values: [][]any{row}},
	).ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("%s: failed to append row to %q: %w", op, title, err)
	}

	s.log.Debug().Str("sheet", title).Msg("Appended row")
	return nil
}
