package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("TARGET_WALLET", "B9SXSuPwpzmYUgk1GRfuW9R9QDMJ6P9SfTybSoawHiLj")
	os.Setenv("TOKEN_MINT", "xNETxQv2HWBzQd2XsKbfnhdtfAniwUJMPLKJdf21Kcb")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
	assert.Equal(t, "B9SXSuPwpzmYUgk1GRfuW9R9QDMJ6P9SfTybSoawHiLj", cfg.TargetWallet)
	assert.Equal(t, "xNETxQv2HWBzQd2XsKbfnhdtfAniwUJMPLKJdf21Kcb", cfg.TokenMint)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.SolanaRPCURL) // Default
	assert.Equal(t, ":8080", cfg.ServerAddr)                                // Default
	assert.Equal(t, "info", cfg.LogLevel)                                   // Default
	assert.Equal(t, "XNET", cfg.TokenSymbol)                                // Default
	assert.Equal(t, 3, cfg.MaxRPCRetries)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 100*time.Millisecond, cfg.BatchDelay)
	assert.Equal(t, 100, cfg.SignatureLimit)
	assert.Equal(t, 5*time.Minute, cfg.TrackInterval)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	os.Setenv("TARGET_WALLET", "B9SXSuPwpzmYUgk1GRfuW9R9QDMJ6P9SfTybSoawHiLj")
	os.Setenv("TOKEN_MINT", "xNETxQv2HWBzQd2XsKbfnhdtfAniwUJMPLKJdf21Kcb")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}

func TestLoad_MissingTargetWallet(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("TOKEN_MINT", "xNETxQv2HWBzQd2XsKbfnhdtfAniwUJMPLKJdf21Kcb")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "TARGET_WALLET is required")
}

func TestLoad_MissingTokenMint(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("TARGET_WALLET", "B9SXSuPwpzmYUgk1GRfuW9R9QDMJ6P9SfTybSoawHiLj")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "TOKEN_MINT is required")
}

func TestLoad_InvalidBatchDelay(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("TARGET_WALLET", "B9SXSuPwpzmYUgk1GRfuW9R9QDMJ6P9SfTybSoawHiLj")
	os.Setenv("TOKEN_MINT", "xNETxQv2HWBzQd2XsKbfnhdtfAniwUJMPLKJdf21Kcb")
	os.Setenv("BATCH_DELAY", "invalid")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoad_InvalidMaxRetries(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("TARGET_WALLET", "B9SXSuPwpzmYUgk1GRfuW9R9QDMJ6P9SfTybSoawHiLj")
	os.Setenv("TOKEN_MINT", "xNETxQv2HWBzQd2XsKbfnhdtfAniwUJMPLKJdf21Kcb")
	os.Setenv("MAX_RPC_RETRIES", "0")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "MAX_RPC_RETRIES must be at least 1")
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("TARGET_WALLET", "B9SXSuPwpzmYUgk1GRfuW9R9QDMJ6P9SfTybSoawHiLj")
	os.Setenv("TOKEN_MINT", "xNETxQv2HWBzQd2XsKbfnhdtfAniwUJMPLKJdf21Kcb")
	os.Setenv("SOLANA_RPC_URL", "https://mainnet.helius-rpc.com/?api-key=secret")
	os.Setenv("TOKEN_SYMBOL", "BONK")
	os.Setenv("SERVER_ADDR", ":9090")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("NATS_URL", "nats://nats.example.com:4222")
	os.Setenv("TEMPORAL_HOST", "temporal.example.com:7233")
	os.Setenv("MAX_RPC_RETRIES", "5")
	os.Setenv("BATCH_SIZE", "25")
	os.Setenv("BATCH_DELAY", "250ms")
	os.Setenv("SIGNATURE_LIMIT", "500")
	os.Setenv("TRACK_INTERVAL", "1m")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://mainnet.helius-rpc.com/?api-key=secret", cfg.SolanaRPCURL)
	assert.Equal(t, "BONK", cfg.TokenSymbol)
	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "nats://nats.example.com:4222", cfg.NATSURL)
	assert.Equal(t, "temporal.example.com:7233", cfg.TemporalHost)
	assert.Equal(t, 5, cfg.MaxRPCRetries)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.BatchDelay)
	assert.Equal(t, 500, cfg.SignatureLimit)
	assert.Equal(t, time.Minute, cfg.TrackInterval)
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		DatabaseURL:    "postgres://localhost/test",
		SolanaRPCURL:   "https://api.mainnet-beta.solana.com",
		TargetWallet:   "B9SXSuPwpzmYUgk1GRfuW9R9QDMJ6P9SfTybSoawHiLj",
		TokenMint:      "xNETxQv2HWBzQd2XsKbfnhdtfAniwUJMPLKJdf21Kcb",
		MaxRPCRetries:  3,
		BatchSize:      10,
		SignatureLimit: 100,
		TrackInterval:  5 * time.Minute,
	}

	require.NoError(t, cfg.Validate())
}

func TestValidate_InvalidConfig(t *testing.T) {
	cfg := &Config{
		DatabaseURL:    "postgres://localhost/test",
		SolanaRPCURL:   "https://api.mainnet-beta.solana.com",
		TargetWallet:   "B9SXSuPwpzmYUgk1GRfuW9R9QDMJ6P9SfTybSoawHiLj",
		TokenMint:      "",
		MaxRPCRetries:  0,
		BatchSize:      10,
		SignatureLimit: 100,
		TrackInterval:  5 * time.Minute,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TokenMint is required")
	assert.Contains(t, err.Error(), "MaxRPCRetries must be at least 1")
}

// cleanupEnv removes all environment variables used by the config package.
func cleanupEnv() {
	vars := []string{
		"DATABASE_URL",
		"SOLANA_RPC_URL",
		"TARGET_WALLET",
		"TOKEN_MINT",
		"TOKEN_SYMBOL",
		"SERVER_ADDR",
		"LOG_LEVEL",
		"NATS_URL",
		"MAX_RPC_RETRIES",
		"BATCH_SIZE",
		"BATCH_DELAY",
		"SIGNATURE_LIMIT",
		"TEMPORAL_HOST",
		"TEMPORAL_NAMESPACE",
		"TEMPORAL_TASK_QUEUE",
		"TRACK_INTERVAL",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
