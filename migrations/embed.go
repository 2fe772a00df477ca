// Package migrations embeds the SQL schema so binaries can migrate without
// shipping the files alongside.
package migrations

import "embed"

// FS holds the versioned up/down migration files
//
//go:embed *.sql
var FS embed.FS
