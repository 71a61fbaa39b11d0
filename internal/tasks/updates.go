package tasks

import (
	"fmt"

	"github.com/desertthunder/snaplist/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	DetectText Phase = iota
	NormalizeTitles
	SearchVideos
	LookupDetails
	RecordHistory
	CreatePlaylist
	AppendItems
	ResolveBatch
)

func (p Phase) String() string {
	switch p {
	case DetectText:
		return "detect_text"
	case NormalizeTitles:
		return "normalize_titles"
	case SearchVideos:
		return "search_videos"
	case LookupDetails:
		return "lookup_details"
	case RecordHistory:
		return "record_history"
	case CreatePlaylist:
		return "create_playlist"
	case AppendItems:
		return "append_items"
	case ResolveBatch:
		return "resolve_batch"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func detectTextUpdate(bytes int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DetectText,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Detecting text in image (%d bytes)...", bytes),
	}
}

func normalizeUpdate(mode string, titles []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   NormalizeTitles,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d title(s) in %s mode", len(titles), mode),
		Data:    titles,
	}
}

func searchUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchVideos,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Searching videos for %d title(s)...", total),
	}
}

func resolvedUpdate(videos []models.ResolvedVideo) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LookupDetails,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resolved %d video(s)", len(videos)),
		Data:    videos,
	}
}

func historyUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordHistory,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Saved history record %s", id),
	}
}

func createPlaylistUpdate(title, id string) ProgressUpdate {
	if id == "" {
		return ProgressUpdate{
			Phase:   CreatePlaylist,
			Step:    0,
			Total:   1,
			Message: fmt.Sprintf("Creating private playlist %q...", title),
		}
	}
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", title, id),
		Data:    id,
	}
}

func appendUpdate(step, total int, videoID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AppendItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Added %s", step, total, videoID),
	}
}

func appendFailedUpdate(step, total int, videoID string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AppendItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, videoID, err),
	}
}

func batchCompletedUpdate(step, total int, path string, videos int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveBatch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d videos)", step, total, path, videos),
	}
}

func batchFailedUpdate(step, total int, path string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveBatch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, path, err),
	}
}
