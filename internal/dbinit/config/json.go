package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/fullstack-starter/internal/flagx"
	"github.com/dmitrijs2005/fullstack-starter/internal/timex"
)

// JsonConfig is the JSON file layout. Durations accept both strings such as
// "1.5s" and integer nanoseconds. Pointer fields distinguish "absent" from
// an explicit zero value.
type JsonConfig struct {
	Environment                 string          `json:"environment"`
	DatabaseDriver              string          `json:"database_driver"`
	DatabaseDSN                 string          `json:"database_dsn"`
	MaintenanceDB               string          `json:"maintenance_db"`
	SeedFile                    string          `json:"seed_file"`
	VerifySeedLogins            *bool           `json:"verify_seed_logins"`
	LogBackend                  string          `json:"log_backend"`
	LogLevel                    string          `json:"log_level"`
	RetryMaxAttempts            *int            `json:"retry_max_attempts"`
	RetryBaseDelay              *timex.Duration `json:"retry_base_delay"`
	RetryMaxDelay               *timex.Duration `json:"retry_max_delay"`
	OTelEndpoint                string          `json:"otel_endpoint"`
	ServiceName                 string          `json:"service_name"`
	SecretKey                   string          `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
}

// parseJson loads the JSON file named by -c/-config, if any, and copies the
// fields present in it onto config. Unreadable or invalid files panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.Environment, c.Environment)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MaintenanceDB, c.MaintenanceDB)
	setString(&config.SeedFile, c.SeedFile)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.OTelEndpoint, c.OTelEndpoint)
	setString(&config.ServiceName, c.ServiceName)
	setString(&config.SecretKey, c.SecretKey)

	if c.VerifySeedLogins != nil {
		config.VerifySeedLogins = *c.VerifySeedLogins
	}
	if c.RetryMaxAttempts != nil {
		config.RetryMaxAttempts = *c.RetryMaxAttempts
	}
	if c.RetryBaseDelay != nil {
		config.RetryBaseDelay = c.RetryBaseDelay.Duration
	}
	if c.RetryMaxDelay != nil {
		config.RetryMaxDelay = c.RetryMaxDelay.Duration
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
