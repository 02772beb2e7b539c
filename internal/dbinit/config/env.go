package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultDotEnvFile = ".env"

// loadDotEnv exports variables from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error; a malformed one panics, as the other config sources do.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
}

// parseEnv overlays variables from environ onto config. A nil environ reads
// the process environment. Unset variables leave fields untouched.
func parseEnv(config *Config, environ map[string]string) {
	if err := env.ParseWithOptions(config, env.Options{Environment: environ}); err != nil {
		panic(err)
	}
}
