package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/snaplist/internal/models"
	"github.com/desertthunder/snaplist/internal/shared"
)

var _ models.Repository[*models.ExportRecord] = (*ExportRepository)(nil)

// ErrExportNotFound is returned when no export record matches a lookup.
var ErrExportNotFound = errors.New("export record not found")

// ExportRepository stores the outcome of playlist exports.
type ExportRepository struct {
	db *sql.DB
}

// NewExportRepository creates a new ExportRepository with the given database connection
func NewExportRepository(db *sql.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Create inserts a new export record, assigning an ID and sequence.
func (r *ExportRepository) Create(record *models.ExportRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "playlist_exports")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	id := shared.GenerateID()

	_, err = r.db.Exec(`
		INSERT INTO playlist_exports (
			id, sequence, owner_id, playlist_id, title, requested, appended,
			failed_video_id, error_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id, sequence, record.OwnerID(), record.PlaylistID(), record.Title(),
		record.Requested(), record.Appended(),
		nullString(record.FailedVideoID()), nullString(record.ErrorMessage()),
		record.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert export record: %w", err)
	}

	record.SetID(id)
	record.SetSequence(sequence)
	return nil
}

// Get retrieves an export record by ID.
func (r *ExportRepository) Get(id string) (*models.ExportRecord, error) {
	row := r.db.QueryRow(`
		SELECT id, sequence, owner_id, playlist_id, title, requested, appended,
		       failed_video_id, error_message, created_at
		FROM playlist_exports
		WHERE id = ? AND deleted_at IS NULL
	`, id)

	record, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrExportNotFound, id)
	}
	return record, err
}

// ListByOwner returns up to limit of ownerID's exports, most recent first. An empty ownerID is rejected.
func (r *ExportRepository) ListByOwner(ownerID string, limit int) ([]*models.ExportRecord, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", shared.ErrInvalidInput)
	}
	return r.List(map[string]any{"owner_id": ownerID, "limit": limit})
}

// List retrieves export records matching criteria ("owner_id", "playlist_id", "limit").
func (r *ExportRepository) List(criteria map[string]any) ([]*models.ExportRecord, error) {
	query := `
		SELECT id, sequence, owner_id, playlist_id, title, requested, appended,
		       failed_video_id, error_message, created_at
		FROM playlist_exports
		WHERE deleted_at IS NULL
	`
	args := []any{}

	if ownerID, ok := criteria["owner_id"].(string); ok && ownerID != "" {
		query += " AND owner_id = ?"
		args = append(args, ownerID)
	}
	if playlistID, ok := criteria["playlist_id"].(string); ok && playlistID != "" {
		query += " AND playlist_id = ?"
		args = append(args, playlistID)
	}

	limit, _ := criteria["limit"].(int)
	query += " ORDER BY sequence DESC LIMIT ?"
	args = append(args, listLimit(limit))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query export records: %w", err)
	}
	defer rows.Close()

	var records []*models.ExportRecord
	for rows.Next() {
		record, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExport(s scanner) (*models.ExportRecord, error) {
	var (
		id, ownerID, playlistID, title string
		sequence, requested, appended  int
		failedVideoID, errorMessage    sql.NullString
		createdAt                      sql.NullTime
	)

	err := s.Scan(&id, &sequence, &ownerID, &playlistID, &title, &requested, &appended,
		&failedVideoID, &errorMessage, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan export record: %w", err)
	}

	return models.RestoreExportRecord(
		id, sequence, ownerID, playlistID, title, requested, appended,
		failedVideoID.String, errorMessage.String, createdAt.Time,
	), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
