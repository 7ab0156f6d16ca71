package database

import (
	"context"
	"fmt"
	"time"

	"github.com/solarbridge/fusionsolar2mqtt/internal/telemetry"
)

// Archive stores polling snapshots in the local SQLite database.
//
// One row per snapshot plus one row per metric record. Numeric values go
// into value_num, strings and booleans into value_text.
type Archive struct {
	db *DB
}

// NewArchive creates an Archive on an open database.
// The schema must have been created via Migrate before first use.
func NewArchive(db *DB) *Archive {
	return &Archive{db: db}
}

// SaveSnapshot stores a snapshot and all its records transactionally.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - takenAt: Timestamp of the polling cycle
//   - snap: The flattened snapshot
//
// Returns:
//   - int64: ID of the stored snapshot row
//   - error: If any insert fails (the whole snapshot is rolled back)
func (a *Archive) SaveSnapshot(ctx context.Context, takenAt time.Time, snap *telemetry.Snapshot) (int64, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() //nolint:errcheck // No-op if committed

	result, err := tx.ExecContext(ctx,
		"INSERT INTO snapshots (taken_at) VALUES (?)",
		takenAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading snapshot id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_records (snapshot_id, category, entity, metric, value_num, value_text)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing record insert: %w", err)
	}
	defer stmt.Close()

	for _, record := range snap.Records() {
		var valueNum any
		var valueText any

		switch v := record.Value.(type) {
		case float64:
			valueNum = v
		default:
			valueText = fmt.Sprint(v)
		}

		if _, err := stmt.ExecContext(ctx,
			id, record.Category, record.Entity, record.Metric, valueNum, valueText,
		); err != nil {
			return 0, fmt.Errorf("inserting record %s: %w", record.Path(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing snapshot: %w", err)
	}

	return id, nil
}

// Prune deletes all but the newest keep snapshots. Records are removed via
// ON DELETE CASCADE. A keep of 0 disables pruning.
//
// Returns:
//   - int64: Number of snapshots deleted
//   - error: If the delete fails
func (a *Archive) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	result, err := a.db.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading pruned row count: %w", err)
	}

	return deleted, nil
}

// HealthCheck verifies the underlying database is accessible.
func (a *Archive) HealthCheck(ctx context.Context) error {
	return a.db.HealthCheck(ctx)
}

// SnapshotCount returns the number of stored snapshots.
func (a *Archive) SnapshotCount(ctx context.Context) (int, error) {
	var count int
	err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting snapshots: %w", err)
	}
	return count, nil
}
