package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/snaplist/internal/services"
	"github.com/desertthunder/snaplist/internal/shared"
	"github.com/desertthunder/snaplist/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive history browser for --owner.
//
// Export is offered only when a playlist token is saved.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/snaplist-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	history, err := r.historyRepository()
	if err != nil {
		return err
	}

	opts := []ui.Option{ui.WithLimit(cmd.Int("limit"))}
	if token, err := services.LoadToken(r.config.Credentials.Google.TokenPath); err == nil {
		exporter, err := r.exporter()
		if err != nil {
			return err
		}
		opts = append(opts, ui.WithExporter(exporter, token))
	} else {
		r.logger.Info("playlist export disabled in TUI", "reason", err)
	}

	model := ui.NewModel(ctx, cmd.String("owner"), history, opts...)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
