// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contiene las migraciones de postgres, ordenadas por nombre.
//
//go:embed *.sql
var FS embed.FS
