package config

import (
	"fmt"
	"os"
	"strconv"

	"irsaliye/internal/logger"
)

// Config holds the application configuration, loaded from the environment.
type Config struct {
	// Database Configuration
	DatabaseURL string

	// Google Cloud Configuration
	GoogleCloudProject string

	// OCR Provider Configuration
	OCRProvider           string // "vision" or "documentai"
	DocumentAIProcessorID string
	GoogleCloudLocation   string
	VisionMonthlyLimit    int
	VisionUsageFile       string

	// Google Sheets Configuration
	GoogleSheetsID string

	// Photo Storage Configuration
	StorageBackend  string // "local" or "drive"
	StorageLocalDir string
	DriveFolderID   string

	// HTTP Server Configuration
	ListenAddr string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads configuration from the environment, applying defaults for
// everything optional. Only settings needed by the requested mode are
// validated by their consumers; Load itself never fails on a missing
// integration so the CLI commands stay usable without a full deployment.
func Load() (*Config, error) {
	config := &Config{
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		OCRProvider:           getEnv("OCR_PROVIDER", "vision"),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		GoogleCloudLocation:   getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		VisionMonthlyLimit:    getEnvInt("VISION_MONTHLY_LIMIT", 950),
		VisionUsageFile:       getEnv("VISION_USAGE_FILE", "./vision-usage.json"),
		GoogleSheetsID:        getEnv("GOOGLE_SHEETS_ID", ""),
		StorageBackend:        getEnv("STORAGE_BACKEND", "local"),
		StorageLocalDir:       getEnv("STORAGE_LOCAL_DIR", "./uploads"),
		DriveFolderID:         getEnv("DRIVE_FOLDER_ID", ""),
		ListenAddr:            getEnv("LISTEN_ADDR", ":3000"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.OCRProvider {
	case "vision", "documentai":
	default:
		return fmt.Errorf("OCR_PROVIDER must be \"vision\" or \"documentai\", got %q", c.OCRProvider)
	}
	switch c.StorageBackend {
	case "local", "drive":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be \"local\" or \"drive\", got %q", c.StorageBackend)
	}
	if c.OCRProvider == "documentai" && c.DocumentAIProcessorID == "" {
		return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required when OCR_PROVIDER=documentai")
	}
	if c.StorageBackend == "drive" && c.DriveFolderID == "" {
		return fmt.Errorf("DRIVE_FOLDER_ID is required when STORAGE_BACKEND=drive")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
