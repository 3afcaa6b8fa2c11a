package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Discord configuration
	Token   string
	AppID   string
	GuildID string

	// Chain configuration
	RPCURL             string
	ChainID            int64
	GameContract       string
	TokenContract      string
	LedgerInterface    string // "current", "legacy" or "auto"
	KeystorePassphrase string

	// Storage
	DataDir     string
	StorageType string // "memory" or "sqlite"
	SessionPath string
	ImagesPath  string

	// Elasticsearch history index, disabled when ESURL is empty
	ESURL         string
	ESUsername    string
	ESPassword    string
	ESIndexPrefix string

	// Observability
	MetricsAddr string
	LogLevel    string

	// Per-user interaction limiter
	CommandRate  float64
	CommandBurst int

	// Poller cadence tiers
	PollActive     time.Duration
	PollVRFPending time.Duration
	PollIdle       time.Duration

	// Environment
	Environment string // "development" or "production"
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Only return error if file exists but couldn't be loaded
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	// Get working directory for resource paths
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	dataDir := getEnvWithDefault("DATA_DIR", filepath.Join(wd, "data"))

	cfg := &Config{
		Token:              os.Getenv("DISCORD_TOKEN"),
		AppID:              os.Getenv("APP_ID"),
		GuildID:            os.Getenv("GUILD_ID"),
		RPCURL:             os.Getenv("RPC_URL"),
		GameContract:       os.Getenv("GAME_CONTRACT"),
		TokenContract:      os.Getenv("TOKEN_CONTRACT"),
		LedgerInterface:    strings.ToLower(getEnvWithDefault("LEDGER_INTERFACE", "auto")),
		KeystorePassphrase: os.Getenv("KEYSTORE_PASSPHRASE"),
		DataDir:            dataDir,
		StorageType:        getEnvWithDefault("STORAGE_TYPE", "sqlite"),
		SessionPath:        filepath.Join(dataDir, "sessions.json"),
		ImagesPath:         filepath.Join(wd, "images.txt"),
		ESURL:              os.Getenv("ES_URL"),
		ESUsername:         os.Getenv("ES_USERNAME"),
		ESPassword:         os.Getenv("ES_PASSWORD"),
		ESIndexPrefix:      getEnvWithDefault("ES_INDEX_PREFIX", "tucoroulette"),
		MetricsAddr:        os.Getenv("METRICS_ADDR"),
		LogLevel:           getEnvWithDefault("LOG_LEVEL", "info"),
		Environment:        getEnvWithDefault("ENVIRONMENT", "development"),
	}

	if cfg.ChainID, err = getInt64(os.Getenv("CHAIN_ID"), 0); err != nil {
		return nil, fmt.Errorf("invalid CHAIN_ID: %w", err)
	}
	if cfg.CommandRate, err = getFloat(getEnvWithDefault("COMMAND_RATE", "2")); err != nil {
		return nil, fmt.Errorf("invalid COMMAND_RATE: %w", err)
	}
	burst, err := getInt64(getEnvWithDefault("COMMAND_BURST", "5"), 5)
	if err != nil {
		return nil, fmt.Errorf("invalid COMMAND_BURST: %w", err)
	}
	cfg.CommandBurst = int(burst)

	if cfg.PollActive, err = getMillis("POLL_ACTIVE_MS", 3000); err != nil {
		return nil, err
	}
	if cfg.PollVRFPending, err = getMillis("POLL_VRF_MS", 2000); err != nil {
		return nil, err
	}
	if cfg.PollIdle, err = getMillis("POLL_IDLE_MS", 10000); err != nil {
		return nil, err
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// validate checks if all required configuration is present
func (c *Config) validate() error {
	if c.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.AppID == "" {
		return fmt.Errorf("APP_ID is required")
	}
	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL is required")
	}
	if c.ChainID <= 0 {
		return fmt.Errorf("CHAIN_ID is required")
	}
	if c.GameContract == "" {
		return fmt.Errorf("GAME_CONTRACT is required")
	}
	if c.TokenContract == "" {
		return fmt.Errorf("TOKEN_CONTRACT is required")
	}
	if c.KeystorePassphrase == "" {
		return fmt.Errorf("KEYSTORE_PASSPHRASE is required")
	}
	switch c.LedgerInterface {
	case "auto", "current", "legacy":
	default:
		return fmt.Errorf("LEDGER_INTERFACE must be auto, current or legacy, got %q", c.LedgerInterface)
	}
	switch c.StorageType {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("STORAGE_TYPE must be memory or sqlite, got %q", c.StorageType)
	}
	if c.PollVRFPending <= 0 || c.PollActive <= 0 || c.PollIdle <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// ElasticsearchEnabled reports whether a history index is configured
func (c *Config) ElasticsearchEnabled() bool {
	return c.ESURL != ""
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt64(value string, defaultValue int64) (int64, error) {
	if value == "" {
		return defaultValue, nil
	}
	return strconv.ParseInt(value, 10, 64)
}

func getFloat(value string) (float64, error) {
	return strconv.ParseFloat(value, 64)
}

func getMillis(key string, defaultMillis int64) (time.Duration, error) {
	ms, err := getInt64(os.Getenv(key), defaultMillis)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
