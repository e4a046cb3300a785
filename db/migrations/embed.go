// Package dbmigrations exposes embedded SQL migrations for portal binaries.
package dbmigrations

import "embed"

// Files contains the embedded SQL migrations bundled into portal binaries.
//
//go:embed *.sql
var Files embed.FS
