package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/snaplist/internal/shared"
)

// EmptyQueryPlaceholder is stored as the original query when a record is created without titles.
const EmptyQueryPlaceholder = "(no titles)"

// HistoryRecord is an owner-scoped snapshot of one resolution request.
//
// Records are immutable after creation; only [HistoryRecord.SetID] and
// [HistoryRecord.SetSequence] are called, by the repository, on insert.
type HistoryRecord struct {
	id            string
	sequence      int
	ownerID       string
	originalQuery string
	foundSongs    []FoundSong
	createdAt     time.Time
}

// NewHistoryRecord builds a record for ownerID from the normalized titles and resolved videos of one request.
func NewHistoryRecord(ownerID string, titles []string, videos []ResolvedVideo) *HistoryRecord {
	return &HistoryRecord{
		ownerID:       ownerID,
		originalQuery: OriginalQuery(titles),
		foundSongs:    FoundSongs(videos),
		createdAt:     time.Now().UTC(),
	}
}

// RestoreHistoryRecord rebuilds a record read back from storage.
func RestoreHistoryRecord(id string, sequence int, ownerID, query string, songs []FoundSong, createdAt time.Time) *HistoryRecord {
	return &HistoryRecord{
		id:            id,
		sequence:      sequence,
		ownerID:       ownerID,
		originalQuery: query,
		foundSongs:    songs,
		createdAt:     createdAt,
	}
}

// OriginalQuery joins titles with ", ", or returns [EmptyQueryPlaceholder] when there are none.
func OriginalQuery(titles []string) string {
	if len(titles) == 0 {
		return EmptyQueryPlaceholder
	}
	return strings.Join(titles, ", ")
}

func (h *HistoryRecord) ID() string               { return h.id }
func (h *HistoryRecord) Sequence() int            { return h.sequence }
func (h *HistoryRecord) OwnerID() string          { return h.ownerID }
func (h *HistoryRecord) OriginalQuery() string    { return h.originalQuery }
func (h *HistoryRecord) CreatedAt() time.Time     { return h.createdAt }
func (h *HistoryRecord) SetID(id string)          { h.id = id }
func (h *HistoryRecord) SetSequence(sequence int) { h.sequence = sequence }

// FoundSongs returns a copy of the record's songs.
func (h *HistoryRecord) FoundSongs() []FoundSong {
	out := make([]FoundSong, len(h.foundSongs))
	copy(out, h.foundSongs)
	return out
}

// Validate requires an owner and an original query, and every song to carry a video ID.
func (h *HistoryRecord) Validate() error {
	if h.ownerID == "" {
		return fmt.Errorf("%w: owner is required", shared.ErrInvalidInput)
	}
	if h.originalQuery == "" {
		return fmt.Errorf("%w: original query is required", shared.ErrInvalidInput)
	}
	for i, s := range h.foundSongs {
		if s.VideoID == "" {
			return fmt.Errorf("%w: song %d has no video id", shared.ErrInvalidInput, i)
		}
	}
	return nil
}

type historyRecordJSON struct {
	ID            string      `json:"id"`
	OwnerID       string      `json:"ownerId"`
	OriginalQuery string      `json:"originalQuery"`
	FoundSongs    []FoundSong `json:"foundSongs"`
	CreatedAt     time.Time   `json:"createdAt"`
}

func (h *HistoryRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(historyRecordJSON{
		ID:            h.id,
		OwnerID:       h.ownerID,
		OriginalQuery: h.originalQuery,
		FoundSongs:    h.FoundSongs(),
		CreatedAt:     h.createdAt,
	})
}
