// YouTube Data API v3 client
//
// Reads (search, videos) use the API key; writes (playlists, playlistItems) use the caller's OAuth token.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"github.com/desertthunder/snaplist/internal/shared"
)

const (
	defaultYTBaseURL = "https://www.googleapis.com/youtube/v3"
	// MaxDetailIDs is the most IDs the videos endpoint accepts in one call.
	MaxDetailIDs = 50
)

type ytThumbnails struct {
	Default struct {
		URL string `json:"url"`
	} `json:"default"`
}

type ytSnippet struct {
	Title        string       `json:"title"`
	ChannelTitle string       `json:"channelTitle"`
	Thumbnails   ytThumbnails `json:"thumbnails"`
}

type ytSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet ytSnippet `json:"snippet"`
	} `json:"items"`
}

type ytVideosResponse struct {
	Items []struct {
		ID      string    `json:"id"`
		Snippet ytSnippet `json:"snippet"`
		Status  struct {
			UploadStatus string `json:"uploadStatus"`
		} `json:"status"`
	} `json:"items"`
}

type ytResource struct {
	ID string `json:"id"`
}

// YouTubeService implements [VideoSearcher], [VideoDetailer] and [PlaylistWriter].
type YouTubeService struct {
	api   *googleAPI
	oauth *oauth2.Config
}

// NewYouTubeService creates a YouTube client. oauthConfig may be nil, in which case
// tokens passed to the playlist methods are used as-is and never refreshed.
func NewYouTubeService(apiKey string, oauthConfig *oauth2.Config, opts ...Option) *YouTubeService {
	return &YouTubeService{
		api:   newGoogleAPI("youtube", defaultYTBaseURL, apiKey, opts...),
		oauth: oauthConfig,
	}
}

// Search returns up to maxResults videos matching query.
func (y *YouTubeService) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))

	var resp ytSearchResponse
	if err := y.api.do(ctx, nil, http.MethodGet, "/search", params, nil, &resp); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		results = append(results, SearchResult{
			VideoID:      item.ID.VideoID,
			Title:        item.Snippet.Title,
			ThumbnailURL: item.Snippet.Thumbnails.Default.URL,
			ChannelTitle: item.Snippet.ChannelTitle,
		})
	}
	return results, nil
}

// VideoDetails looks up ids in one request. Entries come back in the order the API returns them.
func (y *YouTubeService) VideoDetails(ctx context.Context, ids []string) ([]VideoDetail, error) {
	if len(ids) == 0 {
		return []VideoDetail{}, nil
	}
	if len(ids) > MaxDetailIDs {
		return nil, fmt.Errorf("%w: at most %d video ids per lookup, got %d", shared.ErrInvalidArgument, MaxDetailIDs, len(ids))
	}

	params := url.Values{}
	params.Set("part", "snippet,status")
	params.Set("id", strings.Join(ids, ","))

	var resp ytVideosResponse
	if err := y.api.do(ctx, nil, http.MethodGet, "/videos", params, nil, &resp); err != nil {
		return nil, err
	}

	details := make([]VideoDetail, 0, len(resp.Items))
	for _, item := range resp.Items {
		details = append(details, VideoDetail{
			ID:           item.ID,
			Title:        item.Snippet.Title,
			ThumbnailURL: item.Snippet.Thumbnails.Default.URL,
			ChannelTitle: item.Snippet.ChannelTitle,
			UploadStatus: item.Status.UploadStatus,
		})
	}
	return details, nil
}

// CreatePlaylist creates a playlist owned by the token's account and returns its ID.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, token *oauth2.Token, title, privacy string) (string, error) {
	client, err := y.tokenClient(ctx, token)
	if err != nil {
		return "", err
	}

	body := map[string]any{
		"snippet": map[string]string{"title": title},
		"status":  map[string]string{"privacyStatus": privacy},
	}
	params := url.Values{"part": {"snippet,status"}}

	var created ytResource
	if err := y.api.do(ctx, client, http.MethodPost, "/playlists", params, body, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("%w: playlist created without an id", shared.ErrAPIRequest)
	}
	return created.ID, nil
}

// AppendItem adds videoID to the end of playlistID.
func (y *YouTubeService) AppendItem(ctx context.Context, token *oauth2.Token, playlistID, videoID string) error {
	client, err := y.tokenClient(ctx, token)
	if err != nil {
		return err
	}

	body := map[string]any{
		"snippet": map[string]any{
			"playlistId": playlistID,
			"resourceId": map[string]string{"kind": "youtube#video", "videoId": videoID},
		},
	}
	params := url.Values{"part": {"snippet"}}
	return y.api.do(ctx, client, http.MethodPost, "/playlistItems", params, body, nil)
}

// tokenClient wraps the configured HTTP client with token, refreshing it when an OAuth config is present.
func (y *YouTubeService) tokenClient(ctx context.Context, token *oauth2.Token) (*http.Client, error) {
	if token == nil || token.AccessToken == "" && token.RefreshToken == "" {
		return nil, shared.ErrNotAuthenticated
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, y.api.httpClient)
	if y.oauth != nil {
		return oauth2.NewClient(ctx, y.oauth.TokenSource(ctx, token)), nil
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(token)), nil
}
