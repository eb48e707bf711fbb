// Package migration carries the embedded schema scripts for the alarm
// database. Scripts are numbered and applied in order by sqlite.Migrate.
package migration

import (
	"embed"
	"io/fs"
)

//go:embed *.sql
var scripts embed.FS

// Scripts is the ordered set of schema migration scripts.
var Scripts fs.FS = scripts
