package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/snaplist/internal/metrics"
	"github.com/desertthunder/snaplist/internal/models"
	"github.com/desertthunder/snaplist/internal/services"
	"github.com/desertthunder/snaplist/internal/shared"
)

// ExportRequest describes a playlist to build from resolved videos.
type ExportRequest struct {
	OwnerID  string        `json:"-"`
	Title    string        `json:"title" validate:"required,max=150"`
	VideoIDs []string      `json:"videoIds" validate:"min=1,dive,required"`
	Token    *oauth2.Token `json:"-" validate:"required"`
}

// ExportResult reports how far an export got. It is returned even when an append fails.
type ExportResult struct {
	PlaylistID    string `json:"playlistId"`
	Title         string `json:"title"`
	Requested     int    `json:"requested"`
	Appended      int    `json:"appended"`
	FailedVideoID string `json:"failedVideoId,omitempty"`
	ExportID      string `json:"exportId,omitempty"`
}

// ExportRecorder persists export outcomes. Implemented by repositories.ExportRepository.
type ExportRecorder interface {
	Create(record *models.ExportRecord) error
}

// PlaylistExporter creates a private playlist and appends videos in order.
type PlaylistExporter struct {
	writer   services.PlaylistWriter
	recorder ExportRecorder
	logger   *log.Logger
	metrics  *metrics.Collector
}

// NewPlaylistExporter creates an exporter. recorder, logger and m may be nil.
func NewPlaylistExporter(writer services.PlaylistWriter, recorder ExportRecorder, logger *log.Logger, m *metrics.Collector) *PlaylistExporter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &PlaylistExporter{writer: writer, recorder: recorder, logger: logger, metrics: m}
}

// Export validates req before any remote call, creates the playlist, then appends each video sequentially.
//
// The first failed append stops the export. Items appended so far stay in the playlist; the returned
// error wraps [shared.ErrPartialExport] and the triggering error, and the result is non-nil.
func (e *PlaylistExporter) Export(ctx context.Context, req ExportRequest, progress chan<- ProgressUpdate) (*ExportResult, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	if e.writer == nil {
		return nil, fmt.Errorf("%w: playlist writer not initialized", shared.ErrServiceUnavailable)
	}

	logger := shared.WithLogger(e.logger, "title", req.Title)

	sendProgress(progress, createPlaylistUpdate(req.Title, ""))
	playlistID, err := e.writer.CreatePlaylist(ctx, req.Token, req.Title, services.PrivacyPrivate)
	if err != nil {
		e.metrics.ObserveExport(metrics.OutcomeError, 0)
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	sendProgress(progress, createPlaylistUpdate(req.Title, playlistID))
	logger.Info("playlist created", "playlist", playlistID)

	result := &ExportResult{PlaylistID: playlistID, Title: req.Title, Requested: len(req.VideoIDs)}
	total := len(req.VideoIDs)

	for i, videoID := range req.VideoIDs {
		if err := e.writer.AppendItem(ctx, req.Token, playlistID, videoID); err != nil {
			result.FailedVideoID = videoID
			sendProgress(progress, appendFailedUpdate(i+1, total, videoID, err))
			logger.Error("append failed", "playlist", playlistID, "video", videoID, "appended", result.Appended, "error", err)

			e.metrics.ObserveExport(metrics.OutcomePartial, result.Appended)
			e.save(logger, req, result, err)
			return result, fmt.Errorf("%w: %d of %d added, stopped at %s: %w", shared.ErrPartialExport, result.Appended, total, videoID, err)
		}
		result.Appended++
		sendProgress(progress, appendUpdate(i+1, total, videoID))
	}

	e.metrics.ObserveExport(metrics.OutcomeOK, result.Appended)
	e.save(logger, req, result, nil)
	return result, nil
}

// save records the export when a recorder and owner are present. Failures are logged only.
func (e *PlaylistExporter) save(logger *log.Logger, req ExportRequest, result *ExportResult, cause error) {
	if e.recorder == nil || req.OwnerID == "" {
		return
	}

	rec := models.NewExportRecord(req.OwnerID, result.PlaylistID, result.Title, result.Requested, result.Appended)
	if cause != nil {
		rec.SetFailure(result.FailedVideoID, cause)
	}
	if err := e.recorder.Create(rec); err != nil {
		logger.Warn("failed to save export record", "playlist", result.PlaylistID, "error", err)
		return
	}
	result.ExportID = rec.ID()
}
