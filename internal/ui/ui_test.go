package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/snaplist/internal/models"
	"github.com/desertthunder/snaplist/internal/repositories"
	"github.com/desertthunder/snaplist/internal/services/servicestest"
	"github.com/desertthunder/snaplist/internal/shared"
	"github.com/desertthunder/snaplist/internal/tasks"
	th "github.com/desertthunder/snaplist/internal/testing"
	"golang.org/x/oauth2"
)

const owner = "user1"

var token = &oauth2.Token{AccessToken: "access"}

type failingStore struct{ err error }

func (f failingStore) ListByOwner(string, int) ([]*models.HistoryRecord, error) { return nil, f.err }
func (f failingStore) DeleteByOwner(string, string) error                      { return f.err }

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// run feeds cmd and every command it produces back into m.
func run(m *Model, cmd tea.Cmd) {
	for cmd != nil {
		_, cmd = m.Update(cmd())
	}
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		_, cmd := m.Update(keyPress(k))
		run(m, cmd)
	}
}

// seed stores two records and returns the repository. The newer record lists first.
func seed(t *testing.T) *repositories.HistoryRepository {
	t.Helper()
	repo := repositories.NewHistoryRepository(th.MustOpenDB(t))

	older := models.NewHistoryRecord(owner, []string{"BTS - Dynamite"}, []models.ResolvedVideo{{ID: "vid1", Title: "Dynamite"}})
	newer := models.NewHistoryRecord(owner, []string{"Night Letter", "Blue Hour"}, []models.ResolvedVideo{
		{ID: "vid2", Title: "Night Letter"},
		{ID: "vid3", Title: "Blue Hour"},
	})
	for _, rec := range []*models.HistoryRecord{older, newer} {
		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to seed history: %v", err)
		}
	}
	return repo
}

func newModel(t *testing.T, store HistoryStore, opts ...Option) *Model {
	t.Helper()
	m := NewModel(context.Background(), owner, store, opts...)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	run(m, m.Init())
	return m
}

func TestHistoryList(t *testing.T) {
	t.Run("Loads History", func(t *testing.T) {
		m := newModel(t, seed(t))

		if got := len(m.historyList.Items()); got != 2 {
			t.Fatalf("expected 2 records, got %d", got)
		}
		if rec := m.selectedRecord(); rec == nil || rec.OriginalQuery() != "Night Letter, Blue Hour" {
			t.Errorf("expected newest record selected, got %v", rec)
		}
		if !strings.Contains(m.View(), "History for user1") {
			t.Errorf("unexpected view:\n%s", m.View())
		}
	})

	t.Run("Fetch Error", func(t *testing.T) {
		m := newModel(t, failingStore{err: errors.New("database is locked")})

		if m.Err() == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(m.View(), "database is locked") {
			t.Errorf("expected error view, got:\n%s", m.View())
		}
	})

	t.Run("Nil Store", func(t *testing.T) {
		m := newModel(t, nil)
		if !errors.Is(m.Err(), shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", m.Err())
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m := newModel(t, seed(t))
		_, cmd := m.Update(keyPress("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestRecordView(t *testing.T) {
	m := newModel(t, seed(t))

	press(m, "enter")
	if m.ViewState() != RecordView {
		t.Fatalf("expected RecordView, got %d", m.ViewState())
	}
	if got := len(m.songList.Items()); got != 2 {
		t.Errorf("expected 2 songs, got %d", got)
	}
	if !strings.Contains(m.View(), "Blue Hour") {
		t.Errorf("record view missing song:\n%s", m.View())
	}

	press(m, "esc")
	if m.ViewState() != HistoryListView {
		t.Errorf("expected HistoryListView after esc, got %d", m.ViewState())
	}
}

func TestDelete(t *testing.T) {
	t.Run("Confirm", func(t *testing.T) {
		repo := seed(t)
		m := newModel(t, repo)

		press(m, "d")
		if m.ViewState() != ConfirmDeleteView {
			t.Fatalf("expected ConfirmDeleteView, got %d", m.ViewState())
		}
		if !strings.Contains(m.View(), "Night Letter, Blue Hour") {
			t.Errorf("confirm view missing query:\n%s", m.View())
		}

		press(m, "y")
		if m.ViewState() != HistoryListView {
			t.Errorf("expected HistoryListView, got %d", m.ViewState())
		}
		if got := len(m.historyList.Items()); got != 1 {
			t.Errorf("expected 1 remaining record, got %d", got)
		}

		records, err := repo.ListByOwner(owner, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 1 || records[0].OriginalQuery() != "BTS - Dynamite" {
			t.Errorf("unexpected stored records %v", records)
		}
	})

	t.Run("Cancel From Record", func(t *testing.T) {
		m := newModel(t, seed(t))

		press(m, "enter", "d", "n")
		if m.ViewState() != RecordView {
			t.Errorf("expected RecordView after cancel, got %d", m.ViewState())
		}
		if got := len(m.historyList.Items()); got != 2 {
			t.Errorf("expected nothing deleted, got %d records", got)
		}
	})

	t.Run("Store Error", func(t *testing.T) {
		m := newModel(t, seed(t))
		m.store = failingStore{err: errors.New("read-only database")}

		press(m, "d", "y")
		if got := len(m.historyList.Items()); got != 2 {
			t.Errorf("expected record kept, got %d", got)
		}
		if !strings.Contains(m.View(), "Delete failed") {
			t.Errorf("expected failure status:\n%s", m.View())
		}
	})
}

func TestExport(t *testing.T) {
	t.Run("Complete", func(t *testing.T) {
		writer := &servicestest.PlaylistWriter{PlaylistID: "PL1"}
		exporter := tasks.NewPlaylistExporter(writer, nil, nil, nil)
		m := newModel(t, seed(t), WithExporter(exporter, token))

		press(m, "enter", "x")
		if m.ViewState() != ResultView {
			t.Fatalf("expected ResultView, got %d", m.ViewState())
		}
		if m.Err() != nil {
			t.Fatalf("unexpected error: %v", m.Err())
		}

		if got := writer.Appended(); len(got) != 2 || got[0] != "vid2" || got[1] != "vid3" {
			t.Errorf("unexpected appended videos %v", got)
		}
		view := m.View()
		if !strings.Contains(view, "Export Complete") || !strings.Contains(view, "list=PL1") {
			t.Errorf("unexpected result view:\n%s", view)
		}

		press(m, "r")
		if m.ViewState() != HistoryListView {
			t.Errorf("expected HistoryListView after restart, got %d", m.ViewState())
		}
	})

	t.Run("Partial", func(t *testing.T) {
		writer := &servicestest.PlaylistWriter{FailOn: map[string]error{"vid3": errors.New("quota exceeded")}}
		m := newModel(t, seed(t), WithExporter(tasks.NewPlaylistExporter(writer, nil, nil, nil), token))

		press(m, "enter", "x")
		if !errors.Is(m.Err(), shared.ErrPartialExport) {
			t.Fatalf("expected ErrPartialExport, got %v", m.Err())
		}
		if !strings.Contains(m.View(), "Stopped at vid3") {
			t.Errorf("unexpected result view:\n%s", m.View())
		}
	})

	t.Run("Without Token", func(t *testing.T) {
		writer := &servicestest.PlaylistWriter{}
		m := newModel(t, seed(t), WithExporter(tasks.NewPlaylistExporter(writer, nil, nil, nil), nil))

		press(m, "enter", "x")
		if m.ViewState() != RecordView {
			t.Errorf("expected to stay on RecordView, got %d", m.ViewState())
		}
		if !strings.Contains(m.View(), "Export unavailable") {
			t.Errorf("expected unavailable status:\n%s", m.View())
		}
		if len(writer.Created()) != 0 {
			t.Error("no playlist should be created")
		}
	})
}
