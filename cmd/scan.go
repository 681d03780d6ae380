package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"irsaliye/internal/config"
	"irsaliye/internal/logger"
	"irsaliye/internal/ocr"
	"irsaliye/internal/quota"
	"irsaliye/internal/waybill"
)

var scanCmd = &cobra.Command{
	Use:   "scan [image-file]",
	Short: "Read a waybill photo and extract its fields",
	Long: `Run text recognition over a waybill photo and extract the structured
fields: plate number, material, quantity, unit, supplier, ticket number
and date.

The OCR provider is chosen by OCR_PROVIDER (vision or documentai). Google
Vision calls count against the monthly free-tier quota tracked in
VISION_USAGE_FILE.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT - Your Google Cloud project ID`,
	Example: `  # Scan a waybill photo and print the extracted fields
  irsaliye scan waybill.jpg

  # Full result as JSON, written to a file
  irsaliye scan waybill.jpg --json -o result.json

  # Scan with a longer timeout
  irsaliye scan waybill.jpg --timeout 120`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	scanCmd.Flags().Bool("json", false, "Output as JSON")
	scanCmd.Flags().Int("timeout", 60, "Processing timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("scan")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]

	log.Info().
		Str("file", imagePath).
		Bool("json", jsonOutput).
		Int("timeout", timeoutSecs).
		Msg("Starting waybill scan")

	image, err := readImageFile(imagePath, log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	recognizer, err := createRecognizer(ctx, log)
	if err != nil {
		return err
	}

	start := time.Now()
	recognition, err := recognizer.Recognize(ctx, image)
	if err != nil {
		return handleScanError(err, log)
	}

	result := waybill.Extract(recognition.FullText, recognition.Tokens)

	log.Info().
		Int("confidence", result.Confidence).
		Dur("duration", time.Since(start)).
		Int("text_length", len(result.Text)).
		Msg("Waybill scan completed")

	return writeScanResult(result, outputPath, jsonOutput)
}

// readImageFile loads and sanity-checks the waybill photo.
func readImageFile(path string, log zerolog.Logger) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().Str("file", path).Msg("Image file not found")
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("error accessing image file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file: %s", path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("image file is empty: %s", path)
	}
	if info.Size() > ocr.MaxImageSizeBytes {
		log.Error().
			Str("file", path).
			Int64("size", info.Size()).
			Msg("Image exceeds maximum size limit")
		return nil, fmt.Errorf("image too large (%d bytes). Maximum size is %d bytes (20MB)",
			info.Size(), ocr.MaxImageSizeBytes)
	}

	return os.ReadFile(path)
}

// createContextWithTimeout creates a context with timeout and signal handling.
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling scan")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// createRecognizer builds the configured OCR provider.
func createRecognizer(ctx context.Context, log zerolog.Logger) (ocr.Recognizer, error) {
	hasCredentials := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" || os.Getenv("GOOGLE_CREDENTIALS") != ""
	if !hasCredentials {
		log.Error().Msg("Google Cloud credentials not configured")
		return nil, fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n\n" +
			"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n" +
			"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n" +
			"2. Export GOOGLE_CREDENTIALS with inline JSON:\n" +
			"   export GOOGLE_CREDENTIALS='{\"type\":\"service_account\",...}'\n\n" +
			"3. Check that your .env file contains the credentials variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

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
		if errors.Is(err, ocr.ErrMissingCredentials) {
			log.Error().Err(err).Msg("Google Cloud credentials validation failed")
			return nil, fmt.Errorf("Google Cloud credentials validation failed. Please verify:\n\n"+
				"1. Credentials file exists and is readable\n"+
				"2. JSON format is valid\n"+
				"3. Service account has proper permissions\n\n"+
				"Original error: %w", err)
		}
		return nil, fmt.Errorf("failed to create OCR recognizer: %w", err)
	}
	return recognizer, nil
}

// handleScanError provides user-friendly error messages for scan failures.
func handleScanError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Waybill scan failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("scan timed out. Try increasing --timeout or using a smaller image")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("scan was canceled")
	case errors.Is(err, ocr.ErrQuotaExceeded):
		return fmt.Errorf("monthly free OCR quota exceeded. The counter resets at the start of the next month")
	case errors.Is(err, ocr.ErrImageTooLarge):
		return fmt.Errorf("image is too large (maximum 20MB). Try compressing or resizing it")
	case errors.Is(err, ocr.ErrEmptyImage):
		return fmt.Errorf("image is empty")
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "auth:") ||
		strings.Contains(errStr, "transport: per-RPC creds failed"):
		return fmt.Errorf("Google Cloud authentication failed. Please check your credentials:\n\n"+
			"1. Set GOOGLE_APPLICATION_CREDENTIALS to your service account JSON file path\n"+
			"2. Or set GOOGLE_CREDENTIALS with inline JSON\n"+
			"3. Ensure the service account has 'Cloud Vision API User' role\n\n"+
			"Original error: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED") ||
		strings.Contains(errStr, "permission") ||
		strings.Contains(errStr, "forbidden"):
		return fmt.Errorf("permission denied. Please ensure your service account has the 'Cloud Vision API User' role")
	case errors.Is(err, ocr.ErrRecognitionFailed):
		return fmt.Errorf("text recognition failed. This may be due to network issues or service unavailability: %w", err)
	default:
		return fmt.Errorf("waybill scan failed: %w", err)
	}
}

// writeScanResult formats the extraction result and writes it to the output
// path or stdout.
func writeScanResult(result waybill.Result, outputPath string, jsonOutput bool) error {
	var outputData []byte

	if jsonOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		outputData = data
	} else {
		var out strings.Builder
		writeField := func(label, value string) {
			if value != "" {
				fmt.Fprintf(&out, "%-12s %s\n", label+":", value)
			}
		}
		writeField("Plate", result.Data.PlateNumber)
		writeField("Material", result.Data.MaterialType)
		writeField("Quantity", result.Data.Quantity)
		writeField("Unit", result.Data.Unit)
		writeField("Supplier", result.Data.SupplierName)
		writeField("Ticket", result.Data.TicketNumber)
		writeField("Date", result.Data.Date)
		fmt.Fprintf(&out, "%-12s %d%%\n", "Confidence:", result.Confidence)
		outputData = []byte(out.String())
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, outputData, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}

	if _, err := os.Stdout.Write(outputData); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if jsonOutput {
		fmt.Println()
	}
	return nil
}
