package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/snaplist/internal/formatter"
	"github.com/desertthunder/snaplist/internal/models"
	"github.com/desertthunder/snaplist/internal/shared"
)

var (
	_ list.Item = recordItem{}
	_ list.Item = songItem{}
)

// recordItem wraps [models.HistoryRecord] to implement [list.Item].
type recordItem struct {
	record *models.HistoryRecord
}

func (i recordItem) FilterValue() string { return i.record.OriginalQuery() }
func (i recordItem) Title() string       { return shared.Truncate(i.record.OriginalQuery(), 60) }
func (i recordItem) Description() string {
	return fmt.Sprintf("%d songs • %s", len(i.record.FoundSongs()), i.record.CreatedAt().Local().Format("2006-01-02 15:04"))
}

// songItem wraps [models.FoundSong] to implement [list.Item].
type songItem struct {
	song models.FoundSong
}

func (i songItem) FilterValue() string { return i.song.VideoTitle }
func (i songItem) Title() string       { return i.song.VideoTitle }
func (i songItem) Description() string { return formatter.WatchURL(i.song.VideoID) }

func recordItems(records []*models.HistoryRecord) []list.Item {
	items := make([]list.Item, len(records))
	for i, r := range records {
		items[i] = recordItem{record: r}
	}
	return items
}

func songItems(songs []models.FoundSong) []list.Item {
	items := make([]list.Item, len(songs))
	for i, s := range songs {
		items[i] = songItem{song: s}
	}
	return items
}
