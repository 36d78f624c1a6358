package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/procureledger/internal/domain"
	"github.com/iho/procureledger/internal/infrastructure/config"
)

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := config.Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.JWTSecret)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, uint64(3), cfg.RetryMaxAttempts)
	assert.Equal(t, "Purchase Order", cfg.ProcessTitles()[domain.DocumentPurchaseOrder])
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("PROCESS_PAYMENT_ORDER", "PO Payments")

	cfg, err := config.Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "postgres://example", cfg.DatabaseURL)
	assert.Equal(t, "redis://example", cfg.RedisURL)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 45*time.Second, cfg.DatabaseTimeout)
	assert.True(t, cfg.AuthEnabled)
	assert.Equal(t, "top-secret", cfg.JWTSecret)
	assert.Equal(t, "PO Payments", cfg.ProcessTitles()[domain.DocumentPaymentOrder])
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "LEDGER_CASH_ACCOUNT=acc-cash\n" +
		"LEDGER_RECEIVABLE_ACCOUNT=acc-ar\n" +
		"LEDGER_VAT_COLLECTED_ACCOUNT=acc-vat-out\n" +
		"LEDGER_VAT_RECEIVABLE_ACCOUNT=acc-vat-in\n" +
		"HTTP_PORT=7070\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	for _, key := range []string{
		"LEDGER_CASH_ACCOUNT", "LEDGER_RECEIVABLE_ACCOUNT",
		"LEDGER_VAT_COLLECTED_ACCOUNT", "LEDGER_VAT_RECEIVABLE_ACCOUNT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	// Set in the environment, so the file must not override it.
	t.Setenv("HTTP_PORT", "9191")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	accounts := cfg.LedgerAccounts()
	require.NoError(t, accounts.Validate())
	assert.Equal(t, "acc-cash", accounts.Cash)
	assert.Equal(t, "acc-vat-in", accounts.VATReceivable)
	assert.Equal(t, "9191", cfg.HTTPPort)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	_, err := config.Load(missingEnvFile(t))
	assert.Error(t, err)
}
