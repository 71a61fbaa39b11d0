package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/snaplist/internal/formatter"
	"github.com/desertthunder/snaplist/internal/models"
	"github.com/desertthunder/snaplist/internal/repositories"
	"github.com/desertthunder/snaplist/internal/services"
	"github.com/desertthunder/snaplist/internal/shared"
	"github.com/desertthunder/snaplist/internal/tasks"
	"github.com/desertthunder/snaplist/internal/ui"
	"github.com/urfave/cli/v3"
)

// PlaylistExport creates a private playlist from a history entry or from --video IDs.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	owner := cmd.String("owner")
	historyID := cmd.String("history")
	videoIDs := cmd.StringSlice("video")
	title := cmd.String("title")

	if historyID != "" && len(videoIDs) > 0 {
		return fmt.Errorf("%w: cannot specify both --history and --video", shared.ErrInvalidArgument)
	}

	if historyID != "" {
		if owner == "" {
			return fmt.Errorf("%w: --owner is required with --history", shared.ErrMissingArgument)
		}
		record, err := r.lookupHistory(owner, historyID)
		if err != nil {
			return err
		}
		videoIDs = songIDs(record.FoundSongs())
		if title == "" {
			title = ui.ExportTitle(record)
		}
	}

	if len(videoIDs) == 0 {
		return fmt.Errorf("%w: either --history or --video must be provided", shared.ErrMissingArgument)
	}

	token, err := services.LoadToken(r.tokenPath(cmd))
	if err != nil {
		return err
	}

	exporter, err := r.exporter()
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, len(videoIDs)+2)
	done := r.reportProgress(progress)
	result, err := exporter.Export(ctx, tasks.ExportRequest{
		OwnerID:  owner,
		Title:    title,
		VideoIDs: videoIDs,
		Token:    token,
	}, progress)
	close(progress)
	<-done

	if result != nil {
		r.writePlainHeader(result.Title)
		r.writePlain("Playlist: %s\n", formatter.PlaylistURL(result.PlaylistID))
		r.writePlain("Added: %d/%d\n", result.Appended, result.Requested)
	}
	if errors.Is(err, shared.ErrPartialExport) {
		r.writePlain("Stopped at: %s\n", result.FailedVideoID)
	}
	return err
}

// PlaylistList prints past exports, newest first.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	exports, err := repositories.NewExportRepository(db).ListByOwner(cmd.String("owner"), cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if exports == nil {
			exports = []*models.ExportRecord{}
		}
		return r.writeJSON(exports, true)
	}

	if len(exports) == 0 {
		return r.writePlain("No exports.\n")
	}
	for _, e := range exports {
		status := "✓"
		if e.Partial() {
			status = "⚠"
		}
		r.writePlain("%s %s  %s  %d/%d  %s\n",
			status, e.CreatedAt().Local().Format("2006-01-02 15:04"), e.Title(), e.Appended(), e.Requested(), formatter.PlaylistURL(e.PlaylistID()))
		if e.Partial() && e.ErrorMessage() != "" {
			r.writePlain("    stopped at %s: %s\n", e.FailedVideoID(), e.ErrorMessage())
		}
	}
	return nil
}

func (r *Runner) lookupHistory(owner, id string) (*models.HistoryRecord, error) {
	repo, err := r.historyRepository()
	if err != nil {
		return nil, err
	}
	return repo.GetByOwner(owner, id)
}

// tokenPath returns --token when set, otherwise the configured token_path.
func (r *Runner) tokenPath(cmd *cli.Command) string {
	if p := cmd.String("token"); p != "" {
		return p
	}
	return r.config.Credentials.Google.TokenPath
}

func songIDs(songs []models.FoundSong) []string {
	ids := make([]string, len(songs))
	for i, s := range songs {
		ids[i] = s.VideoID
	}
	return ids
}
