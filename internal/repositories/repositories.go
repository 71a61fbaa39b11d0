// package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T] for a specific entity type,
// handling inserts, owner-scoped reads, soft deletes, and sequence generation.
package repositories

import (
	"database/sql"
	"fmt"
)

// DefaultListLimit is used when a list call passes a non-positive limit.
const DefaultListLimit = 10

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers give a strict creation order that timestamps cannot guarantee.
// Callers must not hold an open transaction on db: in-memory databases use a single connection.
func NextSequence(db *sql.DB, table string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	var sequence int
	err = tx.QueryRow(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1 RETURNING value", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
