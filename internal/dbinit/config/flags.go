package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/fullstack-starter/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-e string   environment ("development", "production", ...)
//	-k string   database driver ("pgx" or "sqlite")
//	-d string   database DSN
//	-m string   maintenance database used to create the target database
//	-s string   seed dataset YAML file
//	-b string   log backend ("zap" or "slog")
//	-l string   log level
//	-n int      maximum attempts for transient database failures
//	-o string   OTLP/HTTP trace endpoint
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-e", "-k", "-d", "-m", "-s", "-b", "-l", "-n", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Environment, "e", config.Environment, "environment")
	fs.StringVar(&config.DatabaseDriver, "k", config.DatabaseDriver, "database driver (pgx|sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MaintenanceDB, "m", config.MaintenanceDB, "maintenance database")
	fs.StringVar(&config.SeedFile, "s", config.SeedFile, "seed dataset file (YAML)")
	fs.StringVar(&config.LogBackend, "b", config.LogBackend, "log backend (zap|slog)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.IntVar(&config.RetryMaxAttempts, "n", config.RetryMaxAttempts, "max attempts for transient failures")
	fs.StringVar(&config.OTelEndpoint, "o", config.OTelEndpoint, "OTLP/HTTP trace endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
