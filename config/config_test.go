// config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/degen")
	t.Setenv("SOLANA_RPC_URL", "https://api.devnet.solana.com")
	t.Setenv("BACKEND_PRIVATE_KEY", "somebase58key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5200", cfg.Port)
	assert.Equal(t, UnsetProgramID, cfg.VaultProgramID)
	assert.Equal(t, UnsetProgramID, cfg.GameProgramID)
	assert.Equal(t, UnsetProgramID, cfg.PrizeProgramID)
	assert.Equal(t, UnsetProgramID, cfg.OracleProgramID)
	assert.Equal(t, "https://hermes.pyth.network", cfg.PythAPIURL)
	assert.Equal(t, "wss://api.devnet.solana.com", cfg.WSURL, "ws url derived from rpc url")
}

func TestLoadMissingRequired(t *testing.T) {
	cases := []string{"DATABASE_URL", "SOLANA_RPC_URL", "BACKEND_PRIVATE_KEY"}

	for _, missing := range cases {
		t.Run(missing, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(missing, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestLoadExplicitWSURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SOLANA_WS_URL", "wss://custom.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "wss://custom.example.com", cfg.WSURL)
}
