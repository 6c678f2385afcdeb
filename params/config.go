package params

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process-wide configuration, loaded once at startup from
// environment variables (optionally seeded by a .env file).
type Config struct {
	LogFilter    string
	BindAddress  string
	DBURL        string
	NodeURL      string
	NodeTimeout  time.Duration
	ChainID      uint64
	ContractAddr string

	BlocksPerRequest     uint64
	MaintenanceInterval  time.Duration

	OracleURL         string
	OraclePairAddress string

	CheckpointPath string
}

// Default returns the configuration used when no environment variable
// overrides a field.
func Default() Config {
	return Config{
		LogFilter:           "info",
		BindAddress:         "0.0.0.0:8080",
		DBURL:               "postgres://localhost:5432/orderbook?sslmode=disable",
		NodeURL:             "http://localhost:8545",
		NodeTimeout:         30 * time.Second,
		BlocksPerRequest:    5000,
		MaintenanceInterval: 10 * time.Second,
		OracleURL:           "https://api.thegraph.com/subgraphs/name/uniswap/uniswap-v2",
		CheckpointPath:      "",
	}
}

// LoadFromEnv loads configuration from a .env file (if present, optional)
// and then environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.LogFilter = getEnv("LOG_FILTER", cfg.LogFilter)
	cfg.BindAddress = getEnv("BIND_ADDRESS", cfg.BindAddress)
	cfg.DBURL = getEnv("DB_URL", cfg.DBURL)
	cfg.NodeURL = getEnv("NODE_URL", cfg.NodeURL)
	cfg.ContractAddr = getEnv("CONTRACT_ADDRESS", cfg.ContractAddr)
	cfg.OracleURL = getEnv("ORACLE_URL", cfg.OracleURL)
	cfg.OraclePairAddress = getEnv("ORACLE_PAIR_ADDRESS", cfg.OraclePairAddress)
	cfg.CheckpointPath = getEnv("CHECKPOINT_PATH", cfg.CheckpointPath)

	if v := os.Getenv("CHAIN_ID"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.ChainID = n
		}
	}

	if v := os.Getenv("NUMBER_OF_BLOCKS_TO_SYNC_PER_REQUEST"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.BlocksPerRequest = n
		}
	}

	if v := os.Getenv("MAINTENANCE_INTERVAL"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.MaintenanceInterval = time.Duration(ms) * time.Millisecond
		}
	}

	if v := os.Getenv("NODE_TIMEOUT"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.NodeTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	return cfg
}

// Validate reports the first missing required field: NODE_URL,
// CONTRACT_ADDRESS or CHAIN_ID. The last two have no default and must be
// supplied.
func (c Config) Validate() error {
	if c.NodeURL == "" {
		return fmt.Errorf("params: NODE_URL is required")
	}
	if c.ContractAddr == "" {
		return fmt.Errorf("params: CONTRACT_ADDRESS is required")
	}
	if c.ChainID == 0 {
		return fmt.Errorf("params: CHAIN_ID is required")
	}
	return nil
}

// getEnv returns the environment variable value, or defaultValue if unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
