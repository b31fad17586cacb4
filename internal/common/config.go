package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	OCR      OCRConfig
	Extract  ExtractConfig
	Batch    BatchConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract   string
	Pdftoppm    string
	Pdftotext   string
	Language    string
	DPI         int
	PSM         int
	TessdataDir string
	Timeout     time.Duration
}

// ExtractConfig holds extraction engine thresholds
type ExtractConfig struct {
	AnchorThreshold  float64 // fuzzy anchor acceptance, 0-100
	KeywordThreshold float64 // resident/business keyword acceptance, 0-100
	SchemaFile       string  // optional JSON override for the built-in schemas
}

// BatchConfig holds batch worker configuration
type BatchConfig struct {
	InputDir    string
	ArchiveDir  string
	ResultsFile string
	Workers     int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		OCR: OCRConfig{
			Tesseract:   getEnv("OCR_TESSERACT", "tesseract"),
			Pdftoppm:    getEnv("OCR_PDFTOPPM", "pdftoppm"),
			Pdftotext:   getEnv("OCR_PDFTOTEXT", "pdftotext"),
			Language:    getEnv("OCR_LANGUAGE", "mkd"),
			DPI:         getEnvAsInt("OCR_DPI", 300),
			PSM:         getEnvAsInt("OCR_PSM", 6),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			Timeout:     getEnvAsDuration("OCR_TIMEOUT", 60*time.Second),
		},
		Extract: ExtractConfig{
			AnchorThreshold:  getEnvAsFloat64("EXTRACT_ANCHOR_THRESHOLD", 70),
			KeywordThreshold: getEnvAsFloat64("EXTRACT_KEYWORD_THRESHOLD", 75),
			SchemaFile:       getEnv("EXTRACT_SCHEMA_FILE", ""),
		},
		Batch: BatchConfig{
			InputDir:    getEnv("BATCH_INPUT_DIR", ""),
			ArchiveDir:  getEnv("BATCH_ARCHIVE_DIR", ""),
			ResultsFile: getEnv("BATCH_RESULTS_FILE", "results.xlsx"),
			Workers:     getEnvAsInt("BATCH_WORKERS", 4),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration for the batch worker.
func (c *Config) Validate() error {
	if c.Batch.InputDir == "" {
		return NewAppError("CONFIG_ERROR", "BATCH_INPUT_DIR is required", ErrInvalidInput)
	}
	if c.OCR.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_DPI must be positive", ErrInvalidInput)
	}
	if c.Extract.AnchorThreshold < 0 || c.Extract.AnchorThreshold > 100 {
		return NewAppError("CONFIG_ERROR", "EXTRACT_ANCHOR_THRESHOLD must be within 0-100", ErrInvalidInput)
	}
	return nil
}
