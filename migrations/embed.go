package migrations

import "embed"

// Files exposes all SQL migrations embedded into the binary, one directory per dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var Files embed.FS
