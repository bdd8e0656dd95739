package migrations

import "embed"

// FS contains the embedded SQLite migrations for the settings table.
//
//go:embed *.sql
var FS embed.FS
