package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"environment":                    "development",
		"database_driver":                "sqlite",
		"database_dsn":                   "file:bootstrap.db",
		"maintenance_db":                 "template1",
		"seed_file":                      "seed.yaml",
		"verify_seed_logins":             false,
		"log_backend":                    "slog",
		"log_level":                      "debug",
		"retry_max_attempts":             2,
		"retry_base_delay":               "200ms",
		"retry_max_delay":                2000000000,
		"otel_endpoint":                  "collector:4318",
		"service_name":                   "migrator",
		"secret_key":                     "my_secret_key",
		"access_token_validity_duration": "1m",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "development", cfg.Environment)
		assert.Equal(t, "sqlite", cfg.DatabaseDriver)
		assert.Equal(t, "file:bootstrap.db", cfg.DatabaseDSN)
		assert.Equal(t, "template1", cfg.MaintenanceDB)
		assert.Equal(t, "seed.yaml", cfg.SeedFile)
		assert.False(t, cfg.VerifySeedLogins)
		assert.Equal(t, "slog", cfg.LogBackend)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 2, cfg.RetryMaxAttempts)
		assert.Equal(t, 200*time.Millisecond, cfg.RetryBaseDelay)
		assert.Equal(t, 2*time.Second, cfg.RetryMaxDelay)
		assert.Equal(t, "collector:4318", cfg.OTelEndpoint)
		assert.Equal(t, "migrator", cfg.ServiceName)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 1*time.Minute, cfg.AccessTokenValidityDuration)
	})

	t.Run("absent keys keep current values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{
			"database_dsn": "file:partial.db",
		})
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "file:partial.db", cfg.DatabaseDSN)
		assert.Equal(t, "production", cfg.Environment)
		assert.True(t, cfg.VerifySeedLogins)
		assert.Equal(t, 6, cfg.RetryMaxAttempts)
		assert.Equal(t, 500*time.Millisecond, cfg.RetryBaseDelay)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			Environment:    "staging",
			DatabaseDSN:    "file:keep.db",
			SecretKey:      "key",
			RetryBaseDelay: 2 * time.Minute,
		}
		parseJson(cfg)

		assert.Equal(t, "staging", cfg.Environment)
		assert.Equal(t, "file:keep.db", cfg.DatabaseDSN)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, 2*time.Minute, cfg.RetryBaseDelay)
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "absent.json")}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
