package infrastructure

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port string `json:"port"`
	Host string `json:"host"`

	// Guardian API settings
	GuardianAPIKey  string `json:"-"` // Don't expose in JSON
	GuardianBaseURL string `json:"guardian_base_url"`
	SearchQuery     string `json:"search_query"`
	PageSize        int    `json:"page_size"`
	MaxPages        int    `json:"max_pages"`

	// Summarizer settings
	SummarizerAPIKey  string `json:"-"` // Don't expose in JSON
	SummarizerModel   string `json:"summarizer_model"`
	SummarizerBaseURL string `json:"summarizer_base_url"`

	// Storage settings
	StoreBackend string `json:"store_backend"` // file, postgres or gcs
	ContentDir   string `json:"content_dir"`
	LedgerPath   string `json:"ledger_path"`
	DatabaseURL  string `json:"-"` // Don't expose in JSON
	GCSBucket    string `json:"gcs_bucket"`

	// Pipeline settings
	PageDelay     time.Duration `json:"page_delay"`
	ItemDelay     time.Duration `json:"item_delay"`
	MinBodyLength int           `json:"min_body_length"`

	// Admin API settings
	AdminAuthToken string `json:"-"` // Don't expose in JSON

	// Scheduler settings
	FetchSchedule string `json:"fetch_schedule"` // cron expression
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		Host:              getEnvOrDefault("HOST", "0.0.0.0"),
		GuardianAPIKey:    getEnvOrDefault("GUARDIAN_API_KEY", ""),
		GuardianBaseURL:   getEnvOrDefault("GUARDIAN_BASE_URL", "https://content.guardianapis.com"),
		SearchQuery:       getEnvOrDefault("SEARCH_QUERY", "India"),
		PageSize:          getEnvOrDefaultInt("GUARDIAN_PAGE_SIZE", 50),
		MaxPages:          getEnvOrDefaultInt("GUARDIAN_MAX_PAGES", 50),
		SummarizerAPIKey:  getEnvOrDefault("SUMMARIZER_API_KEY", ""),
		SummarizerModel:   getEnvOrDefault("SUMMARIZER_MODEL", "gpt-4o"),
		SummarizerBaseURL: getEnvOrDefault("SUMMARIZER_BASE_URL", "https://api.openai.com/v1"),
		StoreBackend:      getEnvOrDefault("STORE_BACKEND", "file"),
		ContentDir:        getEnvOrDefault("CONTENT_DIR", "content/articles"),
		LedgerPath:        getEnvOrDefault("LEDGER_PATH", "content/processed-articles.json"),
		DatabaseURL:       getEnvOrDefault("DATABASE_URL", ""),
		GCSBucket:         getEnvOrDefault("GCS_BUCKET", ""),
		PageDelay:         getEnvOrDefaultDuration("PAGE_DELAY", 100*time.Millisecond),
		ItemDelay:         getEnvOrDefaultDuration("ITEM_DELAY", time.Second),
		MinBodyLength:     getEnvOrDefaultInt("MIN_BODY_LENGTH", 100),
		AdminAuthToken:    getEnvOrDefault("ADMIN_AUTH_TOKEN", ""),
		FetchSchedule:     getEnvOrDefault("FETCH_SCHEDULE", "0 6 * * *"),
	}

	return config, config.validate()
}

// validate checks if required configuration values are present
func (c *Config) validate() error {
	if c.GuardianAPIKey == "" {
		return &ConfigError{Field: "GUARDIAN_API_KEY", Message: "Guardian API key is required"}
	}
	if c.SummarizerAPIKey == "" {
		return &ConfigError{Field: "SUMMARIZER_API_KEY", Message: "summarizer API key is required"}
	}
	switch c.StoreBackend {
	case "file", "postgres", "gcs":
	default:
		return &ConfigError{Field: "STORE_BACKEND", Message: "must be one of: file, postgres, gcs"}
	}
	if c.StoreBackend == "postgres" && c.DatabaseURL == "" {
		return &ConfigError{Field: "DATABASE_URL", Message: "database URL is required for the postgres backend"}
	}
	if c.StoreBackend == "gcs" && c.GCSBucket == "" {
		return &ConfigError{Field: "GCS_BUCKET", Message: "bucket name is required for the gcs backend"}
	}
	if c.PageSize < 1 || c.PageSize > 200 {
		return &ConfigError{Field: "GUARDIAN_PAGE_SIZE", Message: "must be between 1 and 200"}
	}
	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvOrDefaultDuration returns environment variable value as duration or default if not set
func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
