// Package migrations embeds the goose SQL migrations for the identity schema.
//
// The statements stick to the subset shared by PostgreSQL and SQLite so the
// same files run against both supported drivers.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
