// Package database provides the optional local SQLite snapshot archive.
//
// When history is enabled, every polling cycle's snapshot is stored as one
// row in snapshots plus one row per metric record in snapshot_records. The
// archive is a local audit trail; MQTT remains the authoritative output and
// a failed archive write never blocks publishing.
//
// The schema is managed by embedded migrations (see the migrations package)
// applied on startup via Migrate. Retention is bounded by history.keep:
// Prune removes the oldest snapshots beyond that count after each cycle.
//
// # Configuration
//
//	history:
//	  enabled: true
//	  path: "./data/fusionsolar.db"
//	  wal_mode: true
//	  busy_timeout: 5   # seconds
//	  keep: 1000        # snapshots to retain, 0 = unlimited
package database
