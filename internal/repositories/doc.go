// Package repositories implements SQLite persistence for history and export records.
//
// Records are append-only: there is no update. Deletion is a soft delete via deleted_at
// timestamps, and deleted records are excluded from every query.
//
// Key Implementations:
//   - [HistoryRepository] : Owner-scoped resolution history with ordered found songs
//   - [ExportRepository] : Playlist export outcomes, including partial exports
//
// Owner-scoped reads and deletes report [shared.ErrHistoryNotFound] both for missing
// records and for records of another owner, so callers cannot probe for foreign IDs.
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated
// sequence tables; lists are ordered by sequence, newest first.
package repositories
