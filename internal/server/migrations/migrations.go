// Package migrations embeds the goose SQL migrations that provision the
// server schema. Running them is idempotent; goose tracks applied versions.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
