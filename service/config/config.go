package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Database configuration
	DatabaseURL string

	// NATS configuration
	NATSURL string

	// Solana configuration
	SolanaRPCURL  string
	TargetWallet  string
	TokenMint     string
	TokenSymbol   string
	TokenDecimals int

	// Tracker configuration
	MaxRPCRetries  int
	BatchSize      int
	BatchDelay     time.Duration
	SignatureLimit int

	// Temporal configuration
	TemporalHost      string
	TemporalNamespace string
	TemporalTaskQueue string
	TrackInterval     time.Duration
}

// Load reads configuration from environment variables and validates all required fields.
// Returns an error if any required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Database configuration
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("DATABASE_URL is required"))
	}

	// NATS configuration
	cfg.NATSURL = getEnvOrDefault("NATS_URL", "nats://localhost:4222")

	// Solana configuration
	cfg.SolanaRPCURL = getEnvOrDefault("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	cfg.TargetWallet = os.Getenv("TARGET_WALLET")
	if cfg.TargetWallet == "" {
		errs = append(errs, fmt.Errorf("TARGET_WALLET is required"))
	}
	cfg.TokenMint = os.Getenv("TOKEN_MINT")
	if cfg.TokenMint == "" {
		errs = append(errs, fmt.Errorf("TOKEN_MINT is required"))
	}
	cfg.TokenSymbol = getEnvOrDefault("TOKEN_SYMBOL", "XNET")

	tokenDecimals, err := parseInt("TOKEN_DECIMALS", 9)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.TokenDecimals = tokenDecimals
	}

	// Tracker configuration
	maxRetries, err := parseInt("MAX_RPC_RETRIES", 3)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.MaxRPCRetries = maxRetries
	}

	batchSize, err := parseInt("BATCH_SIZE", 10)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.BatchSize = batchSize
	}

	batchDelay, err := parseDuration("BATCH_DELAY", "100ms")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.BatchDelay = batchDelay
	}

	sigLimit, err := parseInt("SIGNATURE_LIMIT", 100)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.SignatureLimit = sigLimit
	}

	// Temporal configuration
	cfg.TemporalHost = getEnvOrDefault("TEMPORAL_HOST", "localhost:7233")
	cfg.TemporalNamespace = getEnvOrDefault("TEMPORAL_NAMESPACE", "default")
	cfg.TemporalTaskQueue = getEnvOrDefault("TEMPORAL_TASK_QUEUE", "burnwatch-tracking")

	trackInterval, err := parseDuration("TRACK_INTERVAL", "5m")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.TrackInterval = trackInterval
	}

	// Validate numeric ranges
	if cfg.MaxRPCRetries < 1 {
		errs = append(errs, fmt.Errorf("MAX_RPC_RETRIES must be at least 1"))
	}
	if cfg.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("BATCH_SIZE must be at least 1"))
	}
	if cfg.SignatureLimit < 1 {
		errs = append(errs, fmt.Errorf("SIGNATURE_LIMIT must be at least 1"))
	}
	if cfg.TokenDecimals < 0 || cfg.TokenDecimals > 18 {
		errs = append(errs, fmt.Errorf("TOKEN_DECIMALS must be between 0 and 18"))
	}

	// Return all validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("DatabaseURL is required"))
	}

	if c.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SolanaRPCURL is required"))
	}

	if c.TargetWallet == "" {
		errs = append(errs, fmt.Errorf("TargetWallet is required"))
	}

	if c.TokenMint == "" {
		errs = append(errs, fmt.Errorf("TokenMint is required"))
	}

	if c.MaxRPCRetries < 1 {
		errs = append(errs, fmt.Errorf("MaxRPCRetries must be at least 1"))
	}

	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("BatchSize must be at least 1"))
	}

	if c.SignatureLimit < 1 {
		errs = append(errs, fmt.Errorf("SignatureLimit must be at least 1"))
	}

	if c.TokenDecimals < 0 || c.TokenDecimals > 18 {
		errs = append(errs, fmt.Errorf("TokenDecimals must be between 0 and 18"))
	}

	if c.TrackInterval < time.Second {
		errs = append(errs, fmt.Errorf("TrackInterval must be at least 1 second"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}
