// package services defines the external collaborators of the resolution pipeline
//
// Google Cloud Vision (OCR) and the YouTube Data API v3 (search, details, playlists)
package services

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/desertthunder/snaplist/internal/models"
)

const (
	// UploadStatusProcessed is the only upload status whose videos are resolvable.
	UploadStatusProcessed = "processed"
	// PrivacyPrivate is the visibility of exported playlists.
	PrivacyPrivate = "private"
)

// TextDetector extracts the text block from an image.
type TextDetector interface {
	// DetectText returns [shared.ErrNoTextFound] when the image carries no text.
	DetectText(ctx context.Context, image []byte) (*OCRResult, error)
}

// VideoSearcher queries videos by free text.
type VideoSearcher interface {
	// Search returns at most maxResults hits in relevance order. Zero hits is not an error.
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// VideoDetailer looks up videos by ID in one call.
type VideoDetailer interface {
	VideoDetails(ctx context.Context, ids []string) ([]VideoDetail, error)
}

// PlaylistWriter creates playlists and appends items on behalf of the owner of token.
type PlaylistWriter interface {
	CreatePlaylist(ctx context.Context, token *oauth2.Token, title, privacy string) (string, error)
	AppendItem(ctx context.Context, token *oauth2.Token, playlistID, videoID string) error
}

// OCRResult is the block-level text recognized in one image, with "\n" line breaks.
type OCRResult struct {
	FullText string `json:"fullText"`
}

// SearchResult is one search hit.
type SearchResult struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl"`
	ChannelTitle string `json:"channelTitle"`
}

// Video maps the hit to a [models.ResolvedVideo].
func (s SearchResult) Video() models.ResolvedVideo {
	return models.ResolvedVideo{ID: s.VideoID, Title: s.Title, ThumbnailURL: s.ThumbnailURL, ChannelName: s.ChannelTitle}
}

// VideoDetail is one entry of a details lookup.
type VideoDetail struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl"`
	ChannelTitle string `json:"channelTitle"`
	UploadStatus string `json:"uploadStatus"`
}

// Processed reports whether the video finished processing and can be played.
func (d VideoDetail) Processed() bool { return d.UploadStatus == UploadStatusProcessed }

// Video maps the entry to a [models.ResolvedVideo].
func (d VideoDetail) Video() models.ResolvedVideo {
	return models.ResolvedVideo{ID: d.ID, Title: d.Title, ThumbnailURL: d.ThumbnailURL, ChannelName: d.ChannelTitle}
}
