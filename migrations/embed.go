package migrations

import "embed"

// Global holds the SQL files for the global database, applied in lexical order.
//
//go:embed global/*.sql
var Global embed.FS
