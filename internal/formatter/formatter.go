// package formatter renders resolved videos and history records as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/snaplist/internal/models"
	"github.com/desertthunder/snaplist/internal/shared"
	"github.com/desertthunder/snaplist/internal/tasks"
)

// Format is an output format name.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// Formats lists every supported format, for flag help text.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat maps a flag value to a [Format]. An empty value selects text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// WatchURL returns the watch page of a video.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// PlaylistURL returns the page of a playlist.
func PlaylistURL(playlistID string) string {
	return "https://www.youtube.com/playlist?list=" + playlistID
}

// RenderResolution renders the videos and recommendations of one resolution.
func RenderResolution(res *tasks.ResolveResult, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return shared.MarshalJSON(res, true)
	case FormatCSV:
		return VideosToCSV(res.Videos)
	case FormatMarkdown:
		return VideosToMarkdown("Resolved songs", res.Videos, res.Recommendations), nil
	default:
		return VideosToText(res.Videos, res.Recommendations), nil
	}
}

// VideosToCSV converts videos to CSV with columns: ID, Title, Channel, Thumbnail, URL
func VideosToCSV(videos []models.ResolvedVideo) ([]byte, error) {
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, []string{v.ID, v.Title, v.ChannelName, v.ThumbnailURL, WatchURL(v.ID)})
	}
	return writeCSV([]string{"ID", "Title", "Channel", "Thumbnail", "URL"}, rows)
}

// VideosToMarkdown renders a numbered list of linked videos, followed by recommendations when present.
func VideosToMarkdown(title string, videos, recommendations []models.ResolvedVideo) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Videos**: %d\n\n", len(videos))

	for i, v := range videos {
		fmt.Fprintf(&buf, "%d. [%s](%s)%s\n", i+1, v.Title, WatchURL(v.ID), channelSuffix(v.ChannelName))
	}

	if len(recommendations) > 0 {
		buf.WriteString("\n## Recommended\n\n")
		for _, v := range recommendations {
			fmt.Fprintf(&buf, "- [%s](%s)%s\n", v.Title, WatchURL(v.ID), channelSuffix(v.ChannelName))
		}
	}
	return buf.Bytes()
}

// VideosToText renders one "title - url" line per video.
func VideosToText(videos, recommendations []models.ResolvedVideo) []byte {
	var buf bytes.Buffer

	if len(videos) == 0 {
		buf.WriteString("No videos found.\n")
	}
	for i, v := range videos {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, v.Title, WatchURL(v.ID))
	}

	if len(recommendations) > 0 {
		buf.WriteString("\nRecommended:\n")
		for _, v := range recommendations {
			fmt.Fprintf(&buf, "  - %s - %s\n", v.Title, WatchURL(v.ID))
		}
	}
	return buf.Bytes()
}

// RenderHistory renders history records in format.
func RenderHistory(records []*models.HistoryRecord, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		if records == nil {
			records = []*models.HistoryRecord{}
		}
		return shared.MarshalJSON(records, true)
	case FormatCSV:
		return HistoryToCSV(records)
	case FormatMarkdown:
		return HistoryToMarkdown(records), nil
	default:
		return HistoryToText(records), nil
	}
}

// HistoryToCSV converts records to CSV with columns: ID, Created, Query, Songs, VideoIDs.
// Video IDs are joined with ";".
func HistoryToCSV(records []*models.HistoryRecord) ([]byte, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		songs := r.FoundSongs()
		ids := make([]string, len(songs))
		for i, s := range songs {
			ids[i] = s.VideoID
		}
		rows = append(rows, []string{
			r.ID(),
			r.CreatedAt().Format(time.RFC3339),
			r.OriginalQuery(),
			fmt.Sprint(len(songs)),
			strings.Join(ids, ";"),
		})
	}
	return writeCSV([]string{"ID", "Created", "Query", "Songs", "VideoIDs"}, rows)
}

// HistoryToMarkdown renders one section per record with its songs.
func HistoryToMarkdown(records []*models.HistoryRecord) []byte {
	var buf bytes.Buffer
	buf.WriteString("# History\n\n")

	for _, r := range records {
		fmt.Fprintf(&buf, "## %s\n\n", r.CreatedAt().Format("2006-01-02 15:04"))
		fmt.Fprintf(&buf, "**Query**: %s\n\n", r.OriginalQuery())
		for i, s := range r.FoundSongs() {
			fmt.Fprintf(&buf, "%d. [%s](%s)\n", i+1, s.VideoTitle, WatchURL(s.VideoID))
		}
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// HistoryToText renders one summary line per record.
func HistoryToText(records []*models.HistoryRecord) []byte {
	var buf bytes.Buffer

	if len(records) == 0 {
		buf.WriteString("No history.\n")
	}
	for _, r := range records {
		fmt.Fprintf(&buf, "%s  %s  %d song(s)  %s\n",
			r.ID(), r.CreatedAt().Format("2006-01-02 15:04"), len(r.FoundSongs()), shared.Truncate(r.OriginalQuery(), 60))
	}
	return buf.Bytes()
}

// RecordToText renders a single record with all of its songs.
func RecordToText(r *models.HistoryRecord) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "ID: %s\n", r.ID())
	fmt.Fprintf(&buf, "Created: %s\n", r.CreatedAt().Format(time.RFC1123))
	fmt.Fprintf(&buf, "Query: %s\n\n", r.OriginalQuery())
	for i, s := range r.FoundSongs() {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, s.VideoTitle, WatchURL(s.VideoID))
	}
	return buf.Bytes()
}

// WriteBatchManifest writes a batch summary to path as JSON or, for other formats, one line per image.
func WriteBatchManifest(result *tasks.BatchResult, format Format, path string) error {
	var data []byte
	switch format {
	case FormatJSON:
		var err error
		if data, err = shared.MarshalJSON(result, true); err != nil {
			return fmt.Errorf("failed to marshal manifest: %w", err)
		}
	default:
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "Images: %d (%d succeeded, %d failed)\n\n", result.Total, result.Succeeded, result.Failed)
		for _, item := range result.Items {
			if item.Error != "" {
				fmt.Fprintf(&buf, "✗ %s: %s\n", item.Path, item.Error)
				continue
			}
			fmt.Fprintf(&buf, "✓ %s\n", item.Path)
			for _, v := range item.Result.Videos {
				fmt.Fprintf(&buf, "    %s - %s\n", v.Title, WatchURL(v.ID))
			}
		}
		data = buf.Bytes()
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write CSV records: %w", err)
	}
	return buf.Bytes(), nil
}

func channelSuffix(channel string) string {
	if channel == "" {
		return ""
	}
	return " · " + channel
}
