package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/snaplist/internal/models"
	"github.com/desertthunder/snaplist/internal/shared"
)

var _ models.Repository[*models.HistoryRecord] = (*HistoryRepository)(nil)

// HistoryRepository stores [models.HistoryRecord] rows and their ordered songs.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts record and its songs in one transaction, assigning an ID and sequence.
func (r *HistoryRepository) Create(record *models.HistoryRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "history_records")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	id := shared.GenerateID()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO history_records (id, sequence, owner_id, original_query, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, sequence, record.OwnerID(), record.OriginalQuery(), record.CreatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}

	for i, song := range record.FoundSongs() {
		_, err := tx.Exec(`
			INSERT INTO history_songs (record_id, position, video_id, video_title)
			VALUES (?, ?, ?, ?)
		`, id, i, song.VideoID, song.VideoTitle)
		if err != nil {
			return fmt.Errorf("failed to insert history song %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history record: %w", err)
	}

	record.SetID(id)
	record.SetSequence(sequence)
	return nil
}

// Get retrieves a record by ID regardless of owner, excluding soft-deleted records.
func (r *HistoryRepository) Get(id string) (*models.HistoryRecord, error) {
	row := r.db.QueryRow(`
		SELECT id, sequence, owner_id, original_query, created_at
		FROM history_records
		WHERE id = ? AND deleted_at IS NULL
	`, id)
	return r.scanOne(row)
}

// GetByOwner retrieves a record only if it belongs to ownerID.
func (r *HistoryRepository) GetByOwner(ownerID, id string) (*models.HistoryRecord, error) {
	row := r.db.QueryRow(`
		SELECT id, sequence, owner_id, original_query, created_at
		FROM history_records
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL
	`, id, ownerID)
	return r.scanOne(row)
}

// ListByOwner returns up to limit of ownerID's records, most recent first.
// A non-positive limit uses [DefaultListLimit]. An empty ownerID is rejected.
func (r *HistoryRepository) ListByOwner(ownerID string, limit int) ([]*models.HistoryRecord, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", shared.ErrInvalidInput)
	}
	return r.List(map[string]any{"owner_id": ownerID, "limit": limit})
}

// List retrieves records matching criteria ("owner_id", "limit"), most recent first.
// Without "owner_id" it spans every owner; callers acting for a user go through [HistoryRepository.ListByOwner].
func (r *HistoryRepository) List(criteria map[string]any) ([]*models.HistoryRecord, error) {
	query := `
		SELECT id, sequence, owner_id, original_query, created_at
		FROM history_records
		WHERE deleted_at IS NULL
	`
	args := []any{}

	if ownerID, ok := criteria["owner_id"].(string); ok && ownerID != "" {
		query += " AND owner_id = ?"
		args = append(args, ownerID)
	}

	limit, _ := criteria["limit"].(int)
	query += " ORDER BY sequence DESC LIMIT ?"
	args = append(args, listLimit(limit))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history records: %w", err)
	}

	var heads []historyHead
	for rows.Next() {
		var h historyHead
		if err := rows.Scan(&h.id, &h.sequence, &h.ownerID, &h.query, &h.createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		heads = append(heads, h)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	records := make([]*models.HistoryRecord, 0, len(heads))
	for _, h := range heads {
		record, err := r.withSongs(h)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// DeleteByOwner soft-deletes record id if it belongs to ownerID.
//
// A missing record and a record owned by someone else both report [shared.ErrHistoryNotFound].
func (r *HistoryRepository) DeleteByOwner(ownerID, id string) error {
	result, err := r.db.Exec(`
		UPDATE history_records
		SET deleted_at = ?
		WHERE id = ? AND owner_id = ? AND deleted_at IS NULL
	`, time.Now().UTC(), id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete history record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrHistoryNotFound, id)
	}
	return nil
}

type historyHead struct {
	id        string
	sequence  int
	ownerID   string
	query     string
	createdAt time.Time
}

// scanOne scans a single row and loads its songs
func (r *HistoryRepository) scanOne(row *sql.Row) (*models.HistoryRecord, error) {
	var h historyHead
	err := row.Scan(&h.id, &h.sequence, &h.ownerID, &h.query, &h.createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrHistoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan history record: %w", err)
	}
	return r.withSongs(h)
}

func (r *HistoryRepository) withSongs(h historyHead) (*models.HistoryRecord, error) {
	rows, err := r.db.Query(`
		SELECT video_id, video_title
		FROM history_songs
		WHERE record_id = ?
		ORDER BY position ASC
	`, h.id)
	if err != nil {
		return nil, fmt.Errorf("failed to query history songs: %w", err)
	}
	defer rows.Close()

	songs := []models.FoundSong{}
	for rows.Next() {
		var s models.FoundSong
		if err := rows.Scan(&s.VideoID, &s.VideoTitle); err != nil {
			return nil, fmt.Errorf("failed to scan history song: %w", err)
		}
		songs = append(songs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return models.RestoreHistoryRecord(h.id, h.sequence, h.ownerID, h.query, songs, h.createdAt), nil
}
