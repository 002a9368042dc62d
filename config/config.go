// config/config.go
package config

import (
	"errors"
	"os"
	"strings"
)

// UnsetProgramID is the all-ones sentinel address meaning "this program is not
// deployed yet". Subscriptions and on-chain submissions are skipped for it.
const UnsetProgramID = "11111111111111111111111111111111"

type Config struct {
	DatabaseURL string
	Port        string

	RPCURL            string
	WSURL             string
	BackendPrivateKey string // base58-encoded signing key

	VaultProgramID  string
	GameProgramID   string
	PrizeProgramID  string
	OracleProgramID string

	PythAPIURL string
	BTCFeedID  string
	SOLFeedID  string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		Port:              getEnv("PORT", "5200"),
		RPCURL:            os.Getenv("SOLANA_RPC_URL"),
		WSURL:             os.Getenv("SOLANA_WS_URL"),
		BackendPrivateKey: os.Getenv("BACKEND_PRIVATE_KEY"),
		VaultProgramID:    getEnv("VAULT_PROGRAM_ID", UnsetProgramID),
		GameProgramID:     getEnv("GAME_PROGRAM_ID", UnsetProgramID),
		PrizeProgramID:    getEnv("PRIZE_PROGRAM_ID", UnsetProgramID),
		OracleProgramID:   getEnv("ORACLE_PROGRAM_ID", UnsetProgramID),
		PythAPIURL:        getEnv("PYTH_API_URL", "https://hermes.pyth.network"),
		BTCFeedID:         os.Getenv("PYTH_BTC_PRICE_FEED"),
		SOLFeedID:         os.Getenv("PYTH_SOL_PRICE_FEED"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL environment variable not set")
	}
	if cfg.RPCURL == "" {
		return nil, errors.New("SOLANA_RPC_URL environment variable not set")
	}
	if cfg.BackendPrivateKey == "" {
		return nil, errors.New("BACKEND_PRIVATE_KEY environment variable not set")
	}

	if cfg.WSURL == "" {
		cfg.WSURL = deriveWSURL(cfg.RPCURL)
	}

	return cfg, nil
}

// deriveWSURL maps an HTTP RPC endpoint to its websocket counterpart when
// SOLANA_WS_URL is not set explicitly.
func deriveWSURL(rpcURL string) string {
	switch {
	case strings.HasPrefix(rpcURL, "https://"):
		return "wss://" + strings.TrimPrefix(rpcURL, "https://")
	case strings.HasPrefix(rpcURL, "http://"):
		return "ws://" + strings.TrimPrefix(rpcURL, "http://")
	}
	return rpcURL
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
