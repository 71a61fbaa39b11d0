package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/snaplist/internal/metrics"
	"github.com/desertthunder/snaplist/internal/models"
	"github.com/desertthunder/snaplist/internal/services"
	"github.com/desertthunder/snaplist/internal/shared"
	"github.com/desertthunder/snaplist/internal/tracklist"
)

// HistoryRecorder persists resolution history. Implemented by repositories.HistoryRepository.
type HistoryRecorder interface {
	Create(record *models.HistoryRecord) error
}

// ResolveResult contains everything produced by one image resolution.
type ResolveResult struct {
	Mode            tracklist.Mode         `json:"mode"`
	OCRText         string                 `json:"ocrText"`
	Titles          []string               `json:"titles"`
	Videos          []models.ResolvedVideo `json:"videos"`
	Recommendations []models.ResolvedVideo `json:"recommendations,omitempty"`
	HistoryID       string                 `json:"historyId,omitempty"`
}

// ResolutionEngine runs the image → text → titles → videos → history pipeline.
type ResolutionEngine struct {
	detector   services.TextDetector
	normalizer tracklist.Normalizer
	resolver   Resolver
	mode       tracklist.Mode
	history    HistoryRecorder
	logger     *log.Logger
	metrics    *metrics.Collector
}

// EngineOption configures optional collaborators of a [ResolutionEngine].
type EngineOption func(*ResolutionEngine)

// WithHistory enables history recording for requests that carry an owner.
func WithHistory(h HistoryRecorder) EngineOption {
	return func(e *ResolutionEngine) { e.history = h }
}

func WithLogger(l *log.Logger) EngineOption {
	return func(e *ResolutionEngine) { e.logger = l }
}

func WithMetrics(m *metrics.Collector) EngineOption {
	return func(e *ResolutionEngine) { e.metrics = m }
}

// NewResolutionEngine wires a detector to the normalizer and resolver of mode.
func NewResolutionEngine(detector services.TextDetector, mode tracklist.Mode, normalizer tracklist.Normalizer, resolver Resolver, opts ...EngineOption) *ResolutionEngine {
	e := &ResolutionEngine{
		detector:   detector,
		normalizer: normalizer,
		resolver:   resolver,
		mode:       mode,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode reports the strategy the engine was built with.
func (e *ResolutionEngine) Mode() tracklist.Mode { return e.mode }

// Process resolves the songs shown in image and, when ownerID is set and titles were found, records history.
//
// A history write failure is logged and counted but never returned.
func (e *ResolutionEngine) Process(ctx context.Context, image []byte, ownerID string, progress chan<- ProgressUpdate) (*ResolveResult, error) {
	if len(image) == 0 {
		return nil, shared.ErrNoImage
	}
	if e.detector == nil || e.resolver == nil || e.normalizer == nil {
		return nil, fmt.Errorf("%w: resolution engine not initialized", shared.ErrServiceUnavailable)
	}

	logger := shared.WithLogger(e.logger, "mode", e.mode)

	sendProgress(progress, detectTextUpdate(len(image)))
	ocr, err := e.detector.DetectText(ctx, image)
	switch {
	case errors.Is(err, shared.ErrNoTextFound):
		e.metrics.ObserveResolution(e.mode.String(), metrics.OutcomeEmpty, 0, 0)
		return nil, err
	case errors.Is(err, shared.ErrAPIRequest), errors.Is(err, shared.ErrServiceUnavailable):
		e.metrics.ObserveResolution(e.mode.String(), metrics.OutcomeError, 0, 0)
		return nil, err
	case err != nil:
		e.metrics.ObserveResolution(e.mode.String(), metrics.OutcomeError, 0, 0)
		return nil, fmt.Errorf("%w: text detection: %v", shared.ErrAPIRequest, err)
	case ocr == nil || strings.TrimSpace(ocr.FullText) == "":
		e.metrics.ObserveResolution(e.mode.String(), metrics.OutcomeEmpty, 0, 0)
		return nil, shared.ErrNoTextFound
	}

	titles := e.normalizer.Normalize(ocr.FullText)
	logger.Info("normalized titles", "count", len(titles))
	sendProgress(progress, normalizeUpdate(e.mode.String(), titles))

	sendProgress(progress, searchUpdate(len(titles)))
	resolution, err := e.resolver.Resolve(ctx, titles)
	if err != nil {
		e.metrics.ObserveResolution(e.mode.String(), metrics.OutcomeError, len(titles), 0)
		return nil, err
	}
	sendProgress(progress, resolvedUpdate(resolution.Videos))

	result := &ResolveResult{
		Mode:            e.mode,
		OCRText:         ocr.FullText,
		Titles:          titles,
		Videos:          resolution.Videos,
		Recommendations: resolution.Recommendations,
	}

	if ownerID != "" && len(titles) > 0 {
		result.HistoryID = e.record(logger, ownerID, titles, resolution.Videos)
		if result.HistoryID != "" {
			sendProgress(progress, historyUpdate(result.HistoryID))
		}
	}

	outcome := metrics.OutcomeOK
	if len(result.Videos) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	e.metrics.ObserveResolution(e.mode.String(), outcome, len(titles), len(result.Videos))

	logger.Info("resolved image", "titles", len(titles), "videos", len(result.Videos))
	return result, nil
}

// record writes a history record and returns its ID, or "" when recording is disabled or fails.
func (e *ResolutionEngine) record(logger *log.Logger, ownerID string, titles []string, videos []models.ResolvedVideo) string {
	if e.history == nil {
		return ""
	}

	rec := models.NewHistoryRecord(ownerID, titles, videos)
	if err := e.history.Create(rec); err != nil {
		logger.Warn("failed to save history", "owner", ownerID, "error", err)
		e.metrics.HistoryWriteFailed()
		return ""
	}
	return rec.ID()
}
