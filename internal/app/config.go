package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/stratafi/vault-engine/internal/vault"
)

const (
	MainnetCfgURL = "https://ton-blockchain.github.io/global.config.json"
	TestnetCfgURL = "https://ton-blockchain.github.io/testnet-global.config.json"
)

type (
	Cfg struct {
		LogLevel string
		HTTPPort string
		Postgres Postgres
		Ledger   Ledger
		Lp       vault.LpDescriptor
	}

	Ledger struct {
		NetConfigURL string
		Seed         []string
		PollInterval time.Duration
	}

	Postgres struct {
		Host     string
		Port     string
		User     string
		Password string
		DbName   string
		SslMode  string
		Timezone string
	}
)

// Enabled reports whether a database is configured; without one the
// request store falls back to in-memory.
func (p Postgres) Enabled() bool { return p.Host != "" }

func initConfig() (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	netCfgURL := MainnetCfgURL
	if getEnv("LEDGER_NETWORK", "mainnet") == "testnet" {
		netCfgURL = TestnetCfgURL
	}

	pollInterval, err := time.ParseDuration(getEnv("CONFIG_POLL_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("bad CONFIG_POLL_INTERVAL: %w", err)
	}

	lpDecimals, err := envInt32("LP_DECIMALS", 9)
	if err != nil {
		return nil, err
	}
	tokenDecimals, err := envInt32("TOKEN_DECIMALS", 9)
	if err != nil {
		return nil, err
	}

	cfg := Cfg{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		Ledger: Ledger{
			NetConfigURL: netCfgURL,
			Seed:         strings.Fields(os.Getenv("SEED")),
			PollInterval: pollInterval,
		},
		Lp: vault.LpDescriptor{
			VaultID:            getEnv("VAULT_ID", "sbuck"),
			LpCoinType:         os.Getenv("LP_COIN_TYPE"),
			LpSymbol:           getEnv("LP_SYMBOL", "sBUCK"),
			LpDecimals:         lpDecimals,
			TokenCoinType:      os.Getenv("TOKEN_COIN_TYPE"),
			TokenSymbol:        getEnv("TOKEN_SYMBOL", "BUCK"),
			TokenDecimals:      tokenDecimals,
			VaultAddress:       os.Getenv("VAULT_ADDRESS"),
			VaultConfigAddress: os.Getenv("VAULT_CONFIG_ADDRESS"),
		},
		Postgres: Postgres{
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     os.Getenv("POSTGRES_PORT"),
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DbName:   os.Getenv("POSTGRES_DB_NAME"),
			SslMode:  os.Getenv("POSTGRES_SSLMODE"),
			Timezone: os.Getenv("POSTGRES_TIMEZONE"),
		},
	}

	if err := cfg.Lp.Validate(); err != nil {
		return nil, fmt.Errorf("bad vault descriptor: %w", err)
	}

	return &cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt32(key string, fallback int32) (int32, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad %s: %w", key, err)
	}
	return int32(n), nil
}
