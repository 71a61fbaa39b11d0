package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"github.com/desertthunder/snaplist/internal/models"
	"github.com/desertthunder/snaplist/internal/shared"
	"github.com/desertthunder/snaplist/internal/tasks"
	"github.com/desertthunder/snaplist/internal/tracklist"
)

// ImageField is the multipart field carrying the uploaded image.
const ImageField = "image"

type processResponse struct {
	Videos          []models.ResolvedVideo  `json:"videos"`
	Recommendations *[]models.ResolvedVideo `json:"recommendations,omitempty"`
}

type historyResponse struct {
	History []*models.HistoryRecord `json:"history"`
}

type playlistRequest struct {
	Title    string   `json:"title"`
	VideoIDs []string `json:"videoIds"`
}

type playlistResponse struct {
	*tasks.ExportResult
	Error string `json:"error,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// processImage handles POST /api/process-image with a multipart "image" field and an optional mode query.
//
// The pipeline runs detached from the request context so a disconnecting client does not abort provider calls.
func (s *Server) processImage(w http.ResponseWriter, r *http.Request) {
	mode := s.deps.DefaultMode
	if raw := r.URL.Query().Get("mode"); raw != "" {
		parsed, err := tracklist.ParseMode(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		mode = parsed
	}

	engine, ok := s.deps.Engines[mode]
	if !ok || engine == nil {
		s.writeError(w, r, fmt.Errorf("%w: mode %s is not enabled", shared.ErrInvalidArgument, mode))
		return
	}

	image, err := s.readImage(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := engine.Process(context.WithoutCancel(r.Context()), image, OwnerFrom(r.Context()), nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := processResponse{Videos: result.Videos}
	if mode == tracklist.ModeSingle {
		recs := result.Recommendations
		if recs == nil {
			recs = []models.ResolvedVideo{}
		}
		resp.Recommendations = &recs
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := int64(s.deps.Config.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: image exceeds %d MB", shared.ErrInvalidInput, s.deps.Config.MaxUploadMB)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrNoImage, err)
	}

	file, _, err := r.FormFile(ImageField)
	if err != nil {
		return nil, shared.ErrNoImage
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, shared.ErrNoImage
	}
	return data, nil
}

// listHistory handles GET /api/history?limit=N for the calling owner.
func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFrom(r.Context())
	if owner == "" {
		s.writeError(w, r, shared.ErrNotAuthenticated)
		return
	}
	if s.deps.History == nil {
		s.writeError(w, r, fmt.Errorf("%w: history store not configured", shared.ErrServiceUnavailable))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: limit must be an integer", shared.ErrInvalidArgument))
			return
		}
		limit = n
	}

	records, err := s.deps.History.ListByOwner(owner, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []*models.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, historyResponse{History: records})
}

// deleteHistory handles DELETE /api/history/{id}. Records of other owners report 404.
func (s *Server) deleteHistory(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFrom(r.Context())
	if owner == "" {
		s.writeError(w, r, shared.ErrNotAuthenticated)
		return
	}
	if s.deps.History == nil {
		s.writeError(w, r, fmt.Errorf("%w: history store not configured", shared.ErrServiceUnavailable))
		return
	}

	if err := s.deps.History.DeleteByOwner(owner, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// createPlaylist handles POST /api/playlists using the caller's bearer token for the remote account.
func (s *Server) createPlaylist(w http.ResponseWriter, r *http.Request) {
	if s.deps.Exporter == nil {
		s.writeError(w, r, fmt.Errorf("%w: playlist export not configured", shared.ErrServiceUnavailable))
		return
	}

	token, ok := bearerToken(r)
	if !ok {
		s.writeError(w, r, shared.ErrNotAuthenticated)
		return
	}

	var body playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid JSON body: %v", shared.ErrInvalidInput, err))
		return
	}

	req := tasks.ExportRequest{
		OwnerID:  OwnerFrom(r.Context()),
		Title:    strings.TrimSpace(body.Title),
		VideoIDs: body.VideoIDs,
		Token:    token,
	}

	result, err := s.deps.Exporter.Export(context.WithoutCancel(r.Context()), req, nil)
	switch {
	case errors.Is(err, shared.ErrPartialExport) && result != nil:
		status, msg := statusFor(err)
		s.logger.Warn("partial playlist export", "playlist", result.PlaylistID, "appended", result.Appended, "error", err)
		writeJSON(w, status, playlistResponse{ExportResult: result, Error: msg})
	case err != nil:
		s.writeError(w, r, err)
	default:
		writeJSON(w, http.StatusCreated, playlistResponse{ExportResult: result})
	}
}

func bearerToken(r *http.Request) (*oauth2.Token, bool) {
	scheme, value, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(value) == "" {
		return nil, false
	}
	return &oauth2.Token{AccessToken: strings.TrimSpace(value), TokenType: "Bearer"}, true
}
