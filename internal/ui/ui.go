package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/snaplist/internal/formatter"
	"github.com/desertthunder/snaplist/internal/models"
	"github.com/desertthunder/snaplist/internal/shared"
	"github.com/desertthunder/snaplist/internal/tasks"
	"golang.org/x/oauth2"
)

// DefaultHistoryLimit is how many records the browser loads.
const DefaultHistoryLimit = 50

// ViewState represents the current view in the TUI.
type ViewState int

const (
	HistoryListView ViewState = iota
	RecordView
	ConfirmDeleteView
	ExportView
	ResultView
)

// HistoryStore is the owner-scoped history the browser reads and deletes from.
type HistoryStore interface {
	ListByOwner(ownerID string, limit int) ([]*models.HistoryRecord, error)
	DeleteByOwner(ownerID, id string) error
}

// Exporter builds a playlist from a record's songs. Implemented by [tasks.PlaylistExporter].
type Exporter interface {
	Export(ctx context.Context, req tasks.ExportRequest, progress chan<- tasks.ProgressUpdate) (*tasks.ExportResult, error)
}

// Option configures a [Model].
type Option func(*Model)

// WithExporter enables the export action. Both arguments are required for it to appear.
func WithExporter(exporter Exporter, token *oauth2.Token) Option {
	return func(m *Model) {
		m.exporter = exporter
		m.token = token
	}
}

// WithLimit overrides [DefaultHistoryLimit].
func WithLimit(limit int) Option {
	return func(m *Model) {
		if limit > 0 {
			m.limit = limit
		}
	}
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	owner    string
	limit    int
	store    HistoryStore
	exporter Exporter
	token    *oauth2.Token

	width       int
	height      int
	historyList list.Model
	songList    list.Model
	selected    *models.HistoryRecord
	confirmFrom ViewState

	progress tasks.ProgressUpdate
	waitNext tea.Cmd
	result   *tasks.ExportResult
	status   string
	err      error

	help help.Model
	keys keyMap
}

// NewModel creates a history browser for owner.
func NewModel(ctx context.Context, owner string, store HistoryStore, opts ...Option) *Model {
	m := &Model{
		ctx:         ctx,
		view:        HistoryListView,
		owner:       owner,
		limit:       DefaultHistoryLimit,
		store:       store,
		historyList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		songList:    list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:        help.New(),
		keys:        newKeyMap(),
	}
	m.historyList.Title = "History"
	m.historyList.SetShowHelp(false)
	m.songList.SetShowHelp(false)

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ViewState returns the active view.
func (m *Model) ViewState() ViewState { return m.view }

// Err returns the last fatal error, if any.
func (m *Model) Err() error { return m.err }

// Init loads the owner's history.
func (m *Model) Init() tea.Cmd {
	return m.fetchHistory()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.historyList.SetSize(msg.Width-4, msg.Height-8)
		m.songList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case HistoryListView:
			return m.handleHistoryKeys(msg)
		case RecordView:
			return m.handleRecordKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		case ExportView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgHistoryFetched:
		data := msg.data.(historyFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.historyList.Title = fmt.Sprintf("History for %s (%d)", m.owner, len(data.records))
		return m, m.historyList.SetItems(recordItems(data.records))

	case MsgRecordDeleted:
		data := msg.data.(recordDeleted)
		m.view = HistoryListView
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Delete failed: %v", data.err))
			return m, nil
		}
		for i, item := range m.historyList.Items() {
			if ri, ok := item.(recordItem); ok && ri.record.ID() == data.id {
				m.historyList.RemoveItem(i)
				break
			}
		}
		m.selected = nil
		m.status = styles.ok.Render("Deleted " + data.id)
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitNext

	case MsgExportComplete:
		data := msg.data.(exportComplete)
		m.result = data.result
		m.err = data.err
		m.waitNext = nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case HistoryListView:
		return m.renderHistoryList()
	case RecordView:
		return m.renderRecord()
	case ConfirmDeleteView:
		return m.renderConfirm()
	case ExportView:
		return m.renderExport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.historyList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if rec := m.selectedRecord(); rec != nil {
			m.open(rec)
		}
		return m, nil
	case key.Matches(msg, m.keys.delete):
		if rec := m.selectedRecord(); rec != nil {
			m.selected = rec
			m.confirmFrom = HistoryListView
			m.view = ConfirmDeleteView
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleRecordKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = HistoryListView
		return m, nil
	case key.Matches(msg, m.keys.delete):
		m.confirmFrom = RecordView
		m.view = ConfirmDeleteView
		return m, nil
	case key.Matches(msg, m.keys.export):
		if !m.canExport() {
			m.status = styles.warn.Render("Export unavailable: run `snaplist auth google` first")
			return m, nil
		}
		m.view = ExportView
		m.progress = tasks.ProgressUpdate{}
		return m, m.startExport(m.selected)
	}
	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		return m, m.deleteRecord(m.selected.ID())
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = m.confirmFrom
		return m, nil
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = HistoryListView
		m.selected = nil
		m.result = nil
		m.err = nil
		m.status = ""
		return m, m.fetchHistory()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case HistoryListView:
		m.historyList, cmd = m.historyList.Update(msg)
	case RecordView:
		m.songList, cmd = m.songList.Update(msg)
	}
	return m, cmd
}

func (m *Model) selectedRecord() *models.HistoryRecord {
	if item, ok := m.historyList.SelectedItem().(recordItem); ok {
		return item.record
	}
	return nil
}

// open switches to the record view for rec.
func (m *Model) open(rec *models.HistoryRecord) {
	m.selected = rec
	m.status = ""
	m.songList.Title = shared.Truncate(rec.OriginalQuery(), 60)
	m.songList.SetItems(songItems(rec.FoundSongs()))
	m.view = RecordView
}

func (m *Model) canExport() bool {
	return m.exporter != nil && m.token != nil && m.selected != nil && len(m.selected.FoundSongs()) > 0
}

func (m *Model) fetchHistory() tea.Cmd {
	return func() tea.Msg {
		if m.store == nil {
			return historyFetchedMsg(nil, fmt.Errorf("%w: history store not initialized", shared.ErrServiceUnavailable))
		}
		records, err := m.store.ListByOwner(m.owner, m.limit)
		return historyFetchedMsg(records, err)
	}
}

func (m *Model) deleteRecord(id string) tea.Cmd {
	return func() tea.Msg {
		return recordDeletedMsg(id, m.store.DeleteByOwner(m.owner, id))
	}
}

// startExport runs the export in the background. Progress is closed before the
// completion message is sent, so waitForProgress drains every update first.
func (m *Model) startExport(rec *models.HistoryRecord) tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)

	songs := rec.FoundSongs()
	ids := make([]string, len(songs))
	for i, s := range songs {
		ids[i] = s.VideoID
	}
	req := tasks.ExportRequest{
		OwnerID:  m.owner,
		Title:    ExportTitle(rec),
		VideoIDs: ids,
		Token:    m.token,
	}

	go func() {
		result, err := m.exporter.Export(m.ctx, req, progress)
		close(progress)
		done <- exportCompleteMsg(result, err)
	}()

	m.waitNext = waitForProgress(progress, done)
	return m.waitNext
}

func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan Msg) tea.Cmd {
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressUpdateMsg(update)
		}
		return <-done
	}
}

// ExportTitle names the playlist created from rec.
func ExportTitle(rec *models.HistoryRecord) string {
	return "snaplist " + rec.CreatedAt().Local().Format("2006-01-02 15:04")
}

func (m *Model) helpView(keys ...key.Binding) string {
	return m.help.ShortHelpView(keys)
}

func (m *Model) renderHistoryList() string {
	var b strings.Builder
	b.WriteString(m.historyList.View())
	if m.status != "" {
		b.WriteString("\n" + m.status)
	}
	b.WriteString("\n\n" + m.helpView(m.keys.enter, m.keys.delete, m.keys.quit))
	return b.String()
}

func (m *Model) renderRecord() string {
	keys := []key.Binding{m.keys.back, m.keys.delete}
	if m.canExport() {
		keys = append(keys, m.keys.export)
	}
	keys = append(keys, m.keys.quit)

	var b strings.Builder
	b.WriteString(m.songList.View())
	if m.status != "" {
		b.WriteString("\n" + m.status)
	}
	b.WriteString("\n\n" + m.helpView(keys...))
	return b.String()
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Delete this history entry?")
	info := fmt.Sprintf("\nQuery: %s\nSongs: %d\nCreated: %s\n",
		m.selected.OriginalQuery(),
		len(m.selected.FoundSongs()),
		m.selected.CreatedAt().Local().Format("2006-01-02 15:04"),
	)
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.helpView(m.keys.yes, m.keys.no))
}

func (m *Model) renderExport() string {
	title := styles.title.Render("Exporting Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.CreatePlaylist:
		phase = "Creating playlist..."
	case tasks.AppendItems:
		phase = fmt.Sprintf("Adding videos (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Starting..."
	}
	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, styles.help.Render(m.progress.Message))
}

func (m *Model) renderResult() string {
	helpView := m.helpView(m.keys.restart, m.keys.quit)

	if m.result == nil {
		msg := "No result available"
		if m.err != nil {
			msg = fmt.Sprintf("Export failed: %v", m.err)
		}
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(msg), helpView)
	}

	url := styles.url.Render(formatter.PlaylistURL(m.result.PlaylistID))
	info := fmt.Sprintf("\nPlaylist: %s\n%s\nAdded: %d/%d", m.result.Title, url, m.result.Appended, m.result.Requested)

	if errors.Is(m.err, shared.ErrPartialExport) {
		title := styles.warn.Render("⚠ Export stopped early")
		failed := styles.err.Render(fmt.Sprintf("\n\nStopped at %s: %v", m.result.FailedVideoID, m.err))
		return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
	}

	title := styles.ok.Render("✓ Export Complete!")
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}
