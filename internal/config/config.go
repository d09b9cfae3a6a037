package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-ledger/internal/passthrough"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Ledger      LedgerConfig
	OCR         OCRConfig
	Identify    IdentifyConfig
	Passthrough PassthroughConfig
	Log         LogConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	BodyLimitMB int
}

type LedgerConfig struct {
	DBPath string
}

type OCRConfig struct {
	TesseractBin   string
	PdftoppmBin    string
	Language       string
	Resolution     int
	HeaderFraction float64
}

type IdentifyConfig struct {
	// FingerprintsFile overrides the built-in bank list when set.
	FingerprintsFile string
	FuzzyThreshold   int
}

type PassthroughConfig struct {
	WindowHours float64
	Tolerance   float64
	MinAmount   float64
}

type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads configuration from a .env file when present, then from
// environment variables. Variables already set win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "localhost"),
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			BodyLimitMB: getEnvAsInt("SERVER_BODY_LIMIT_MB", 20),
		},
		Ledger: LedgerConfig{
			DBPath: getEnv("LEDGER_DB_PATH", defaultDBPath()),
		},
		OCR: OCRConfig{
			TesseractBin:   getEnv("OCR_TESSERACT_BIN", "tesseract"),
			PdftoppmBin:    getEnv("OCR_PDFTOPPM_BIN", "pdftoppm"),
			Language:       getEnv("OCR_LANGUAGE", "eng"),
			Resolution:     getEnvAsInt("OCR_RESOLUTION", 200),
			HeaderFraction: getEnvAsFloat("OCR_HEADER_FRACTION", 0.30),
		},
		Identify: IdentifyConfig{
			FingerprintsFile: getEnv("FINGERPRINTS_FILE", ""),
			FuzzyThreshold:   getEnvAsInt("FUZZY_THRESHOLD", 80),
		},
		Passthrough: PassthroughConfig{
			WindowHours: getEnvAsFloat("PASSTHROUGH_WINDOW_HOURS", 24),
			Tolerance:   getEnvAsFloat("PASSTHROUGH_TOLERANCE", 0.2),
			MinAmount:   getEnvAsFloat("PASSTHROUGH_MIN_AMOUNT", 1000),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvAsBool("LOG_PRETTY", true),
		},
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT %d is out of range", cfg.Server.Port)
	}
	if cfg.OCR.HeaderFraction <= 0 || cfg.OCR.HeaderFraction >= 1 {
		return nil, errors.New("OCR_HEADER_FRACTION must be between 0 and 1")
	}
	if cfg.Identify.FuzzyThreshold < 0 || cfg.Identify.FuzzyThreshold > 100 {
		return nil, errors.New("FUZZY_THRESHOLD must be between 0 and 100")
	}
	if err := cfg.Passthrough.Matcher().Validate(); err != nil {
		return nil, fmt.Errorf("passthrough config: %w", err)
	}

	return cfg, nil
}

// Matcher converts the settings to the matcher's configuration.
func (c PassthroughConfig) Matcher() passthrough.Config {
	return passthrough.Config{
		TimeWindow:      time.Duration(c.WindowHours * float64(time.Hour)),
		AmountTolerance: decimal.NewFromFloat(c.Tolerance),
		MinimumAmount:   decimal.NewFromFloat(c.MinAmount),
	}
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ledger.db"
	}
	return filepath.Join(home, ".statement-ledger", "ledger.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
