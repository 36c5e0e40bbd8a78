// Package migrations embeds the SQL schema so binaries and tests migrate
// without depending on the working directory.
package migrations

import "embed"

// FS holds every NNN_name.sql migration
//
//go:embed *.sql
var FS embed.FS
