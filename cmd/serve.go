package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"irsaliye/internal/config"
	"irsaliye/internal/intake"
	"irsaliye/internal/logger"
	"irsaliye/internal/ocr"
	"irsaliye/internal/quota"
	"irsaliye/internal/report"
	"irsaliye/internal/server"
	"irsaliye/internal/sheets"
	"irsaliye/internal/storage"
	"irsaliye/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP backend",
	Long: `Start the HTTP API serving projects, field photos, transaction intake
with waybill OCR, and daily material reports.

Integrations are wired from the environment: DATABASE_URL for Postgres,
Google credentials for OCR and Sheets, STORAGE_BACKEND for photo storage.
Missing integrations disable their routes instead of failing startup, so a
development box can run the API without a full deployment.`,
	Example: `  # Serve on the default address (:3000)
  irsaliye serve

  # Serve on a specific address
  irsaliye serve --addr :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: LISTEN_ADDR or :3000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.ListenAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		projects     server.ProjectStore
		photos       server.PhotoStore
		transactions *store.TransactionRepo
	)
	if cfg.DatabaseURL != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		projects = store.NewProjectRepo(db)
		photos = store.NewPhotoRepo(db)
		transactions = store.NewTransactionRepo(db)
	} else {
		log.Warn().Msg("DATABASE_URL not set, database-backed routes disabled")
	}

	var photoStorage storage.Backend
	uploadsDir := ""
	if cfg.StorageBackend == "drive" {
		drive, err := storage.NewDrive(ctx, cfg.DriveFolderID)
		if err != nil {
			return fmt.Errorf("failed to create Drive storage: %w", err)
		}
		photoStorage = drive
	} else {
		photoStorage = storage.NewLocal(cfg.StorageLocalDir)
		uploadsDir = cfg.StorageLocalDir
	}

	var recognizer ocr.Recognizer
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" || os.Getenv("GOOGLE_CREDENTIALS") != "" {
		recognizer, err = buildRecognizer(ctx, cfg)
		if err != nil {
			return err
		}
	} else {
		log.Warn().Msg("Google credentials not set, OCR disabled")
	}

	var sheetSync *sheets.Service
	if cfg.GoogleSheetsID != "" {
		sheetSync, err = sheets.NewService(ctx, cfg.GoogleSheetsID)
		if err != nil {
			return fmt.Errorf("failed to create Sheets service: %w", err)
		}
	} else {
		log.Warn().Msg("GOOGLE_SHEETS_ID not set, sheet sync disabled")
	}

	var (
		txLister  server.TransactionLister
		intakeSvc server.IntakeService
		reportSvc server.ReportService
	)
	if transactions != nil {
		txLister = transactions
		if sheetSync != nil {
			intakeSvc = intake.NewService(transactions, recognizer, photoStorage, sheetSync)
		} else {
			intakeSvc = intake.NewService(transactions, recognizer, photoStorage, nil)
		}
		reportSvc = report.NewService(transactions)
	}

	srv := server.New(projects, photos, txLister, intakeSvc, reportSvc, recognizer, photoStorage, uploadsDir)

	log.Info().
		Str("addr", addr).
		Str("ocr_provider", cfg.OCRProvider).
		Str("storage", cfg.StorageBackend).
		Bool("database", transactions != nil).
		Bool("sheets", sheetSync != nil).
		Msg("Starting HTTP backend")

	return srv.Run(ctx, addr)
}

// buildRecognizer constructs the configured OCR provider, mirroring the scan
// command's wiring.
func buildRecognizer(ctx context.Context, cfg *config.Config) (ocr.Recognizer, error) {
	if cfg.OCRProvider == "documentai" {
		recognizer, err := ocr.NewDocumentAIRecognizer(ctx, ocr.DocumentAIConfig{
			ProjectID:   cfg.GoogleCloudProject,
			Location:    cfg.GoogleCloudLocation,
			ProcessorID: cfg.DocumentAIProcessorID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Document AI recognizer: %w", err)
		}
		return recognizer, nil
	}

	counter := quota.NewFileCounter(cfg.VisionUsageFile, cfg.VisionMonthlyLimit)
	recognizer, err := ocr.NewGoogleVisionRecognizer(ctx, counter)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR recognizer: %w", err)
	}
	return recognizer, nil
}
