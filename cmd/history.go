package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/snaplist/internal/formatter"
	"github.com/desertthunder/snaplist/internal/models"
	"github.com/desertthunder/snaplist/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList prints the owner's most recent resolutions.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	repo, err := r.historyRepository()
	if err != nil {
		return err
	}

	records, err := repo.ListByOwner(cmd.String("owner"), cmd.Int("limit"))
	if err != nil {
		return err
	}

	data, err := formatter.RenderHistory(records, format)
	if err != nil {
		return err
	}
	return r.writeOutput(data, cmd.String("output"))
}

// HistoryShow prints one resolution with all of its songs.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: history id is required", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	repo, err := r.historyRepository()
	if err != nil {
		return err
	}

	record, err := repo.GetByOwner(cmd.String("owner"), id)
	if err != nil {
		return err
	}

	switch format {
	case formatter.FormatJSON:
		return r.writeJSON(record, true)
	case formatter.FormatText:
		return r.writeOutput(formatter.RecordToText(record), "")
	default:
		data, err := formatter.RenderHistory([]*models.HistoryRecord{record}, format)
		if err != nil {
			return err
		}
		return r.writeOutput(data, "")
	}
}

// HistoryDelete removes one of the owner's resolutions.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: history id is required", shared.ErrMissingArgument)
	}

	repo, err := r.historyRepository()
	if err != nil {
		return err
	}

	owner := cmd.String("owner")
	if err := repo.DeleteByOwner(owner, id); err != nil {
		return err
	}

	r.logger.Info("history deleted", "id", id, "owner", owner)
	return r.writePlain("✓ Deleted %s\n", id)
}
