package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/snaplist/internal/shared"
)

// ExportRecord stores the outcome of one playlist export.
//
// A record with a FailedVideoID describes a partial export: the remote
// playlist exists and holds the first Appended items.
type ExportRecord struct {
	id            string
	sequence      int
	ownerID       string
	playlistID    string
	title         string
	requested     int
	appended      int
	failedVideoID string
	errorMessage  string
	createdAt     time.Time
}

// NewExportRecord describes an export of requested videos into playlistID.
func NewExportRecord(ownerID, playlistID, title string, requested, appended int) *ExportRecord {
	return &ExportRecord{
		ownerID:    ownerID,
		playlistID: playlistID,
		title:      title,
		requested:  requested,
		appended:   appended,
		createdAt:  time.Now().UTC(),
	}
}

// RestoreExportRecord rebuilds a record read back from storage.
func RestoreExportRecord(id string, sequence int, ownerID, playlistID, title string, requested, appended int, failedVideoID, errorMessage string, createdAt time.Time) *ExportRecord {
	return &ExportRecord{
		id:            id,
		sequence:      sequence,
		ownerID:       ownerID,
		playlistID:    playlistID,
		title:         title,
		requested:     requested,
		appended:      appended,
		failedVideoID: failedVideoID,
		errorMessage:  errorMessage,
		createdAt:     createdAt,
	}
}

func (e *ExportRecord) ID() string               { return e.id }
func (e *ExportRecord) Sequence() int            { return e.sequence }
func (e *ExportRecord) OwnerID() string          { return e.ownerID }
func (e *ExportRecord) PlaylistID() string       { return e.playlistID }
func (e *ExportRecord) Title() string            { return e.title }
func (e *ExportRecord) Requested() int           { return e.requested }
func (e *ExportRecord) Appended() int            { return e.appended }
func (e *ExportRecord) FailedVideoID() string    { return e.failedVideoID }
func (e *ExportRecord) ErrorMessage() string     { return e.errorMessage }
func (e *ExportRecord) CreatedAt() time.Time     { return e.createdAt }
func (e *ExportRecord) SetID(id string)          { e.id = id }
func (e *ExportRecord) SetSequence(sequence int) { e.sequence = sequence }

// Partial reports whether the export stopped before appending every requested video.
func (e *ExportRecord) Partial() bool { return e.appended < e.requested }

// SetFailure records the video whose append aborted the export.
func (e *ExportRecord) SetFailure(videoID string, err error) {
	e.failedVideoID = videoID
	if err != nil {
		e.errorMessage = err.Error()
	}
}

func (e *ExportRecord) Validate() error {
	switch {
	case e.ownerID == "":
		return fmt.Errorf("%w: owner is required", shared.ErrInvalidInput)
	case e.playlistID == "":
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	case e.appended < 0 || e.appended > e.requested:
		return fmt.Errorf("%w: appended %d of %d", shared.ErrInvalidInput, e.appended, e.requested)
	}
	return nil
}

func (e *ExportRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID            string    `json:"id"`
		OwnerID       string    `json:"ownerId"`
		PlaylistID    string    `json:"playlistId"`
		Title         string    `json:"title"`
		Requested     int       `json:"requested"`
		Appended      int       `json:"appended"`
		FailedVideoID string    `json:"failedVideoId,omitempty"`
		Error         string    `json:"error,omitempty"`
		CreatedAt     time.Time `json:"createdAt"`
	}{e.id, e.ownerID, e.playlistID, e.title, e.requested, e.appended, e.failedVideoID, e.errorMessage, e.createdAt})
}
