// Package migrations registers the schema migrations applied by the db
// subcommands.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the collection the migrator runs. Each migration file
// registers itself in init().
var Migrations = migrate.NewMigrations()
