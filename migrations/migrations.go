// Package migrations embeds the SQL schema applied by the orgops CLI.
package migrations

import "embed"

// FS holds the goose migration files.
//
//go:embed *.sql
var FS embed.FS
