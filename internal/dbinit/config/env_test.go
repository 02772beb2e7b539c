package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	tests := []struct {
		name        string
		environ     map[string]string
		expected    *Config
		expectPanic bool
	}{
		{
			name: "all variables",
			environ: map[string]string{
				"APP_ENV":                     "development",
				"DATABASE_DRIVER":             "sqlite",
				"DATABASE_DSN":                "file:app.db",
				"DATABASE_MAINTENANCE_DB":     "template1",
				"SEED_FILE":                   "seed.yaml",
				"SEED_VERIFY_LOGINS":          "false",
				"LOG_BACKEND":                 "slog",
				"LOG_LEVEL":                   "debug",
				"RETRY_MAX_ATTEMPTS":          "3",
				"RETRY_BASE_DELAY":            "250ms",
				"RETRY_MAX_DELAY":             "5s",
				"OTEL_EXPORTER_OTLP_ENDPOINT": "localhost:4318",
				"OTEL_SERVICE_NAME":           "migrator",
				"SECRET_KEY":                  "k",
				"ACCESS_TOKEN_VALIDITY":       "1m",
			},
			expected: &Config{
				Environment:                 "development",
				DatabaseDriver:              "sqlite",
				DatabaseDSN:                 "file:app.db",
				MaintenanceDB:               "template1",
				SeedFile:                    "seed.yaml",
				VerifySeedLogins:            false,
				LogBackend:                  "slog",
				LogLevel:                    "debug",
				RetryMaxAttempts:            3,
				RetryBaseDelay:              250 * time.Millisecond,
				RetryMaxDelay:               5 * time.Second,
				OTelEndpoint:                "localhost:4318",
				ServiceName:                 "migrator",
				SecretKey:                   "k",
				AccessTokenValidityDuration: time.Minute,
			},
		},
		{
			name:    "unset variables keep current values",
			environ: map[string]string{"DATABASE_DSN": "postgres://db/app"},
			expected: func() *Config {
				c := &Config{}
				c.LoadDefaults()
				c.DatabaseDSN = "postgres://db/app"
				return c
			}(),
		},
		{
			name:        "invalid duration panics",
			environ:     map[string]string{"RETRY_BASE_DELAY": "soon"},
			expectPanic: true,
		},
		{
			name:        "invalid integer panics",
			environ:     map[string]string{"RETRY_MAX_ATTEMPTS": "many"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			config.LoadDefaults()

			if tt.expectPanic {
				require.Panics(t, func() { parseEnv(config, tt.environ) })
				return
			}

			require.NotPanics(t, func() { parseEnv(config, tt.environ) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func Test_loadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		require.NotPanics(t, func() { loadDotEnv(filepath.Join(t.TempDir(), ".env")) })
	})

	t.Run("exports variables without overriding", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("SEED_FILE=from-dotenv.yaml\nLOG_BACKEND=slog\n"), 0o600))

		t.Setenv("LOG_BACKEND", "zap")
		t.Setenv("SEED_FILE", "")
		require.NoError(t, os.Unsetenv("SEED_FILE"))

		loadDotEnv(path)

		assert.Equal(t, "from-dotenv.yaml", os.Getenv("SEED_FILE"))
		assert.Equal(t, "zap", os.Getenv("LOG_BACKEND"))
	})

	t.Run("malformed file panics", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("BAD-KEY=1\n"), 0o600))
		require.Panics(t, func() { loadDotEnv(path) })
	})
}
