// Package migrations embeds the per-driver SQL migration files.
//
// Bundling at compile time keeps deployment to a single binary with no
// external file dependencies.
package migrations

import "embed"

//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
