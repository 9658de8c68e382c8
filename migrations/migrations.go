package migrations

import "embed"

// FS holds the versioned SQL migrations for the coach schema.
//
//go:embed *.sql
var FS embed.FS
