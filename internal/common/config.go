package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Dirs       DirConfig
	Watcher    WatcherConfig
	Vision     VisionConfig
	Review     ReviewConfig
	Validation ValidateConfig
	LogLevel   string
}

// DirConfig holds the managed filesystem layout.
type DirConfig struct {
	InboxDir      string
	OutputDir     string
	QuarantineDir string
	SucceededDir  string
	AssetsDir     string
	MasterLogPath string
	JournalPath   string
}

// WatcherConfig holds inbox-watcher configuration.
type WatcherConfig struct {
	Debounce    time.Duration
	InitialScan bool
}

// VisionConfig holds vision-model configuration for field recognition.
type VisionConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
	MaxImageMB  int
}

// ReviewConfig holds human-review configuration.
type ReviewConfig struct {
	Endpoint      string
	ShutdownGrace time.Duration
}

// ValidateConfig holds validation-engine toggles.
type ValidateConfig struct {
	CheckLineItems bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Dirs: DirConfig{
			InboxDir:      getEnv("INBOX_DIR", "./pdfs"),
			OutputDir:     getEnv("OUTPUT_DIR", "./output_pdfs"),
			QuarantineDir: getEnv("QUARANTINE_DIR", "./error_pdfs"),
			SucceededDir:  getEnv("SUCCEEDED_DIR", "./success_pdfs"),
			AssetsDir:     getEnv("ASSETS_DIR", "./images"),
			MasterLogPath: getEnv("MASTER_LOG_PATH", "./extracted_receipt_data.json"),
			JournalPath:   getEnv("JOURNAL_PATH", "./data/journal.db"),
		},
		Watcher: WatcherConfig{
			Debounce:    getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
			InitialScan: getEnvAsBool("WATCH_INITIAL_SCAN", true),
		},
		Vision: VisionConfig{
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
			MaxImageMB:  getEnvAsInt("OPENAI_MAX_IMAGE_MB", 20),
		},
		Review: ReviewConfig{
			Endpoint:      getEnv("REVIEW_ENDPOINT", ""),
			ShutdownGrace: getEnvAsDuration("REVIEW_SHUTDOWN_GRACE", 3*time.Second),
		},
		Validation: ValidateConfig{
			CheckLineItems: getEnvAsBool("VALIDATE_LINE_ITEMS", false),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Dirs.InboxDir == "" {
		return NewAppError("CONFIG_ERROR", "INBOX_DIR is required", ErrInvalidInput)
	}
	if c.Vision.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Review.Endpoint == "" {
		return NewAppError("CONFIG_ERROR", "REVIEW_ENDPOINT is required", ErrInvalidInput)
	}
	return nil
}
