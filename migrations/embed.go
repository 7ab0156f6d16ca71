// Package migrations embeds the SQL schema migrations for the snapshot
// archive. Importing this package (usually via a blank import from the
// binary) wires the embedded files into the database package's migration
// runner.
package migrations

import (
	"embed"

	"github.com/solarbridge/fusionsolar2mqtt/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.MigrationsFS = files
	database.MigrationsDir = "."
}
