package repositories

import (
	"errors"
	"testing"

	"github.com/desertthunder/snaplist/internal/models"
	"github.com/desertthunder/snaplist/internal/shared"
	tu "github.com/desertthunder/snaplist/internal/testing"
)

func testVideos() []models.ResolvedVideo {
	return []models.ResolvedVideo{
		{ID: "vid1", Title: "Dynamite (Official MV)"},
		{ID: "vid2", Title: "How You Like That"},
	}
}

func TestNextSequence(t *testing.T) {
	db := tu.MustOpenDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "history_records")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for unknown sequence table")
	}
}

func TestHistoryRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewHistoryRepository(tu.MustOpenDB(t))
		rec := models.NewHistoryRecord("user1", []string{"BTS - Dynamite"}, testVideos())

		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		if rec.ID() == "" {
			t.Error("record ID should be set after creation")
		}
		if rec.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", rec.Sequence())
		}
	})

	t.Run("Create Invalid", func(t *testing.T) {
		repo := NewHistoryRepository(tu.MustOpenDB(t))
		rec := models.NewHistoryRecord("", []string{"BTS - Dynamite"}, testVideos())

		if err := repo.Create(rec); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewHistoryRepository(tu.MustOpenDB(t))
		rec := models.NewHistoryRecord("user1", []string{"BTS - Dynamite", "BLACKPINK - How You Like That"}, testVideos())
		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		got, err := repo.Get(rec.ID())
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}

		if got.OriginalQuery() != "BTS - Dynamite, BLACKPINK - How You Like That" {
			t.Errorf("unexpected query %q", got.OriginalQuery())
		}

		songs := got.FoundSongs()
		if len(songs) != 2 {
			t.Fatalf("expected 2 songs, got %d", len(songs))
		}
		if songs[0].VideoID != "vid1" || songs[1].VideoID != "vid2" {
			t.Errorf("songs out of order: %+v", songs)
		}
		if !got.CreatedAt().Equal(rec.CreatedAt()) {
			t.Errorf("expected created at %v, got %v", rec.CreatedAt(), got.CreatedAt())
		}
	})

	t.Run("Get Missing", func(t *testing.T) {
		repo := NewHistoryRepository(tu.MustOpenDB(t))

		if _, err := repo.Get("missing"); !errors.Is(err, shared.ErrHistoryNotFound) {
			t.Errorf("expected ErrHistoryNotFound, got %v", err)
		}
	})

	t.Run("GetByOwner", func(t *testing.T) {
		repo := NewHistoryRepository(tu.MustOpenDB(t))
		rec := models.NewHistoryRecord("user1", []string{"Night Letter"}, testVideos())
		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		if _, err := repo.GetByOwner("user1", rec.ID()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if _, err := repo.GetByOwner("user2", rec.ID()); !errors.Is(err, shared.ErrHistoryNotFound) {
			t.Errorf("expected ErrHistoryNotFound for foreign owner, got %v", err)
		}
	})

	t.Run("ListByOwner", func(t *testing.T) {
		repo := NewHistoryRepository(tu.MustOpenDB(t))

		for _, q := range []string{"first", "second", "third"} {
			if err := repo.Create(models.NewHistoryRecord("user1", []string{q}, testVideos())); err != nil {
				t.Fatalf("failed to create record: %v", err)
			}
		}
		if err := repo.Create(models.NewHistoryRecord("user2", []string{"other"}, testVideos())); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		records, err := repo.ListByOwner("user1", 0)
		if err != nil {
			t.Fatalf("failed to list records: %v", err)
		}

		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}
		if records[0].OriginalQuery() != "third" || records[2].OriginalQuery() != "first" {
			t.Errorf("expected most recent first, got %q..%q", records[0].OriginalQuery(), records[2].OriginalQuery())
		}
		for _, r := range records {
			if r.OwnerID() != "user1" {
				t.Errorf("unexpected owner %q", r.OwnerID())
			}
			if len(r.FoundSongs()) != 2 {
				t.Errorf("expected songs to be loaded, got %d", len(r.FoundSongs()))
			}
		}
	})

	t.Run("ListByOwner Limit", func(t *testing.T) {
		repo := NewHistoryRepository(tu.MustOpenDB(t))

		for range DefaultListLimit + 2 {
			if err := repo.Create(models.NewHistoryRecord("user1", []string{"Night Letter"}, testVideos())); err != nil {
				t.Fatalf("failed to create record: %v", err)
			}
		}

		tc := []struct {
			limit int
			want  int
		}{
			{0, DefaultListLimit},
			{-1, DefaultListLimit},
			{2, 2},
			{50, DefaultListLimit + 2},
		}
		for _, tt := range tc {
			records, err := repo.ListByOwner("user1", tt.limit)
			if err != nil {
				t.Fatalf("failed to list records: %v", err)
			}
			if len(records) != tt.want {
				t.Errorf("limit %d: expected %d records, got %d", tt.limit, tt.want, len(records))
			}
		}
	})

	t.Run("ListByOwner Empty", func(t *testing.T) {
		repo := NewHistoryRepository(tu.MustOpenDB(t))

		records, err := repo.ListByOwner("nobody", 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected no records, got %d", len(records))
		}
	})

	t.Run("DeleteByOwner", func(t *testing.T) {
		repo := NewHistoryRepository(tu.MustOpenDB(t))
		rec := models.NewHistoryRecord("user1", []string{"Night Letter"}, testVideos())
		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		if err := repo.DeleteByOwner("user1", rec.ID()); err != nil {
			t.Fatalf("failed to delete record: %v", err)
		}

		if _, err := repo.Get(rec.ID()); !errors.Is(err, shared.ErrHistoryNotFound) {
			t.Errorf("expected deleted record to be hidden, got %v", err)
		}

		if err := repo.DeleteByOwner("user1", rec.ID()); !errors.Is(err, shared.ErrHistoryNotFound) {
			t.Errorf("expected second delete to report not found, got %v", err)
		}
	})

	t.Run("DeleteByOwner Foreign Owner", func(t *testing.T) {
		repo := NewHistoryRepository(tu.MustOpenDB(t))
		rec := models.NewHistoryRecord("user1", []string{"Night Letter"}, testVideos())
		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create record: %v", err)
		}

		if err := repo.DeleteByOwner("user2", rec.ID()); !errors.Is(err, shared.ErrHistoryNotFound) {
			t.Fatalf("expected ErrHistoryNotFound, got %v", err)
		}

		records, err := repo.ListByOwner("user1", 10)
		if err != nil {
			t.Fatalf("failed to list records: %v", err)
		}
		if len(records) != 1 || records[0].ID() != rec.ID() {
			t.Errorf("expected record to remain, got %d records", len(records))
		}
	})

	t.Run("DeleteByOwner Missing", func(t *testing.T) {
		repo := NewHistoryRepository(tu.MustOpenDB(t))

		if err := repo.DeleteByOwner("user1", "missing"); !errors.Is(err, shared.ErrHistoryNotFound) {
			t.Errorf("expected ErrHistoryNotFound, got %v", err)
		}
	})

	t.Run("ListByOwner Empty Owner", func(t *testing.T) {
		repo := NewHistoryRepository(tu.MustOpenDB(t))
		for _, owner := range []string{"user1", "user2"} {
			if err := repo.Create(models.NewHistoryRecord(owner, []string{"Night Letter"}, testVideos())); err != nil {
				t.Fatalf("failed to create record: %v", err)
			}
		}

		records, err := repo.ListByOwner("", 10)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected no records for empty owner, got %d", len(records))
		}
	})

	t.Run("List Criteria", func(t *testing.T) {
		repo := NewHistoryRepository(tu.MustOpenDB(t))
		for _, owner := range []string{"user1", "user2"} {
			if err := repo.Create(models.NewHistoryRecord(owner, []string{"Night Letter"}, testVideos())); err != nil {
				t.Fatalf("failed to create record: %v", err)
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list records: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 records, got %d", len(all))
		}
	})
}

func TestExportRepository(t *testing.T) {
	t.Run("Create and Get", func(t *testing.T) {
		repo := NewExportRepository(tu.MustOpenDB(t))
		rec := models.NewExportRecord("user1", "PL1", "Road Trip", 2, 2)

		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create export: %v", err)
		}

		got, err := repo.Get(rec.ID())
		if err != nil {
			t.Fatalf("failed to get export: %v", err)
		}
		if got.PlaylistID() != "PL1" || got.Title() != "Road Trip" {
			t.Errorf("unexpected export %s %s", got.PlaylistID(), got.Title())
		}
		if got.Partial() {
			t.Error("complete export should not be partial")
		}
		if got.FailedVideoID() != "" || got.ErrorMessage() != "" {
			t.Errorf("expected no failure fields, got %q %q", got.FailedVideoID(), got.ErrorMessage())
		}
	})

	t.Run("Partial", func(t *testing.T) {
		repo := NewExportRepository(tu.MustOpenDB(t))
		rec := models.NewExportRecord("user1", "PL1", "Road Trip", 3, 1)
		rec.SetFailure("vid2", errors.New("quota exceeded"))

		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create export: %v", err)
		}

		got, err := repo.Get(rec.ID())
		if err != nil {
			t.Fatalf("failed to get export: %v", err)
		}
		if !got.Partial() || got.Appended() != 1 || got.Requested() != 3 {
			t.Errorf("unexpected counts %d/%d", got.Appended(), got.Requested())
		}
		if got.FailedVideoID() != "vid2" || got.ErrorMessage() != "quota exceeded" {
			t.Errorf("unexpected failure fields %q %q", got.FailedVideoID(), got.ErrorMessage())
		}
	})

	t.Run("Get Missing", func(t *testing.T) {
		repo := NewExportRepository(tu.MustOpenDB(t))

		if _, err := repo.Get("missing"); !errors.Is(err, ErrExportNotFound) {
			t.Errorf("expected ErrExportNotFound, got %v", err)
		}
	})

	t.Run("ListByOwner", func(t *testing.T) {
		repo := NewExportRepository(tu.MustOpenDB(t))
		for _, pl := range []string{"PL1", "PL2"} {
			if err := repo.Create(models.NewExportRecord("user1", pl, "Mix", 1, 1)); err != nil {
				t.Fatalf("failed to create export: %v", err)
			}
		}
		if err := repo.Create(models.NewExportRecord("user2", "PL3", "Mix", 1, 1)); err != nil {
			t.Fatalf("failed to create export: %v", err)
		}

		records, err := repo.ListByOwner("user1", 0)
		if err != nil {
			t.Fatalf("failed to list exports: %v", err)
		}
		if len(records) != 2 || records[0].PlaylistID() != "PL2" {
			t.Errorf("unexpected exports %+v", records)
		}

		byPlaylist, err := repo.List(map[string]any{"playlist_id": "PL3"})
		if err != nil {
			t.Fatalf("failed to list exports: %v", err)
		}
		if len(byPlaylist) != 1 || byPlaylist[0].OwnerID() != "user2" {
			t.Errorf("unexpected exports %+v", byPlaylist)
		}
	})

	t.Run("ListByOwner Empty Owner", func(t *testing.T) {
		repo := NewExportRepository(tu.MustOpenDB(t))
		if err := repo.Create(models.NewExportRecord("user1", "PL1", "Mix", 1, 1)); err != nil {
			t.Fatalf("failed to create export: %v", err)
		}

		records, err := repo.ListByOwner("", 10)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected no exports for empty owner, got %d", len(records))
		}
	})

	t.Run("Create Invalid", func(t *testing.T) {
		repo := NewExportRepository(tu.MustOpenDB(t))

		if err := repo.Create(models.NewExportRecord("user1", "PL1", "Mix", 1, 5)); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestClosedDatabase(t *testing.T) {
	db, err := shared.NewDatabase(shared.MemoryDatabase)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	db.Close()

	history := NewHistoryRepository(db)
	if err := history.Create(models.NewHistoryRecord("user1", []string{"x"}, testVideos())); err == nil {
		t.Error("expected error on closed database")
	}
	if _, err := history.ListByOwner("user1", 1); err == nil {
		t.Error("expected error on closed database")
	}
	if err := history.DeleteByOwner("user1", "id"); err == nil {
		t.Error("expected error on closed database")
	}

	exports := NewExportRepository(db)
	if _, err := exports.List(map[string]any{}); err == nil {
		t.Error("expected error on closed database")
	}
}
