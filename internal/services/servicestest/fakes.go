// Package servicestest provides in-memory fakes of the services interfaces for tests.
package servicestest

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/oauth2"

	"github.com/desertthunder/snaplist/internal/services"
	"github.com/desertthunder/snaplist/internal/shared"
)

// Detector returns a fixed OCR result.
type Detector struct {
	Text string
	Err  error

	mu    sync.Mutex
	calls int
}

func (d *Detector) DetectText(_ context.Context, image []byte) (*services.OCRResult, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()

	if d.Err != nil {
		return nil, d.Err
	}
	if d.Text == "" {
		return nil, shared.ErrNoTextFound
	}
	return &services.OCRResult{FullText: d.Text}, nil
}

func (d *Detector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// Searcher answers queries from Results and fails queries listed in Errs.
type Searcher struct {
	Results map[string][]services.SearchResult
	Errs    map[string]error

	mu      sync.Mutex
	queries []string
	limits  []int
}

func (s *Searcher) Search(_ context.Context, query string, maxResults int) ([]services.SearchResult, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.limits = append(s.limits, maxResults)
	s.mu.Unlock()

	if err := s.Errs[query]; err != nil {
		return nil, err
	}
	results := s.Results[query]
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// Queries returns the queries received, sorted, since fan-out order is not deterministic.
func (s *Searcher) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.queries)
	slices.Sort(out)
	return out
}

// Limits returns the maxResults values received, in call order.
func (s *Searcher) Limits() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.limits)
}

// Detailer returns the entries of Details whose IDs were requested, in Details order.
type Detailer struct {
	Details []services.VideoDetail
	Err     error

	mu    sync.Mutex
	calls [][]string
}

func (d *Detailer) VideoDetails(_ context.Context, ids []string) ([]services.VideoDetail, error) {
	d.mu.Lock()
	d.calls = append(d.calls, slices.Clone(ids))
	d.mu.Unlock()

	if d.Err != nil {
		return nil, d.Err
	}

	out := []services.VideoDetail{}
	for _, detail := range d.Details {
		if slices.Contains(ids, detail.ID) {
			out = append(out, detail)
		}
	}
	return out, nil
}

// Calls returns the ID lists of every lookup.
func (d *Detailer) Calls() [][]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.calls)
}

// PlaylistWriter records playlist writes. Appends of IDs in FailOn fail with the mapped error.
type PlaylistWriter struct {
	PlaylistID string
	CreateErr  error
	FailOn     map[string]error

	mu       sync.Mutex
	created  []string
	privacy  []string
	appended []string
	attempts int
}

func (p *PlaylistWriter) CreatePlaylist(_ context.Context, token *oauth2.Token, title, privacy string) (string, error) {
	if token == nil {
		return "", shared.ErrNotAuthenticated
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, title)
	p.privacy = append(p.privacy, privacy)

	if p.CreateErr != nil {
		return "", p.CreateErr
	}
	if p.PlaylistID == "" {
		return "PL-test", nil
	}
	return p.PlaylistID, nil
}

func (p *PlaylistWriter) AppendItem(_ context.Context, _ *oauth2.Token, _, videoID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts++

	if err := p.FailOn[videoID]; err != nil {
		return err
	}
	p.appended = append(p.appended, videoID)
	return nil
}

// Created returns the titles of created playlists.
func (p *PlaylistWriter) Created() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.created)
}

// Privacy returns the visibility requested for each created playlist.
func (p *PlaylistWriter) Privacy() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.privacy)
}

// Appended returns the video IDs appended successfully, in order.
func (p *PlaylistWriter) Appended() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.appended)
}

// Attempts counts every append call, successful or not.
func (p *PlaylistWriter) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

// Result builds a search hit whose fields derive from id.
func Result(id, title string) services.SearchResult {
	return services.SearchResult{
		VideoID:      id,
		Title:        title,
		ThumbnailURL: "https://i.ytimg.com/vi/" + id + "/default.jpg",
		ChannelTitle: "channel " + id,
	}
}

// Detail builds a details entry for id with the given upload status.
func Detail(id, title, status string) services.VideoDetail {
	return services.VideoDetail{
		ID:           id,
		Title:        title,
		ThumbnailURL: "https://i.ytimg.com/vi/" + id + "/default.jpg",
		ChannelTitle: "channel " + id,
		UploadStatus: status,
	}
}
