// Package migrations ships the SQLite schema history.
package migrations

import "embed"

// FS holds the NNN_name.{up,down}.sql files in apply order.
//
//go:embed *.sql
var FS embed.FS
