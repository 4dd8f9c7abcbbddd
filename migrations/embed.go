// Package migrations embeds the SQL schema so binaries and tests do not
// depend on the working directory.
package migrations

import "embed"

// FS holds the numbered up/down migration files
//
//go:embed *.sql
var FS embed.FS
