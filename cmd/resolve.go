package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/desertthunder/snaplist/internal/formatter"
	"github.com/desertthunder/snaplist/internal/shared"
	"github.com/desertthunder/snaplist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Resolve resolves one screenshot, or several through the batch worker pool.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one image path is required", shared.ErrMissingArgument)
	}

	mode, err := r.mode(cmd)
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	engine, err := r.engine(ctx, mode)
	if err != nil {
		return err
	}

	owner := cmd.String("owner")
	r.logger.Debug("resolving", "images", len(paths), "mode", mode, "owner", owner)

	if len(paths) == 1 {
		image, err := shared.VerifyAndReadFile(paths[0])
		if err != nil {
			return err
		}

		progress := make(chan tasks.ProgressUpdate, 20)
		done := r.reportProgress(progress)
		result, err := engine.Process(ctx, image, owner, progress)
		close(progress)
		<-done

		if err != nil {
			return err
		}

		data, err := formatter.RenderResolution(result, format)
		if err != nil {
			return err
		}
		return r.writeOutput(data, cmd.String("output"))
	}

	progress := make(chan tasks.ProgressUpdate, len(paths))
	done := r.reportProgress(progress)
	batch, err := tasks.BatchResolve(ctx, engine, paths, tasks.BatchOpts{
		OwnerID:    owner,
		NumWorkers: cmd.Int("workers"),
	}, progress)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	if manifest := cmd.String("manifest"); manifest != "" {
		if err := formatter.WriteBatchManifest(batch, format, manifest); err != nil {
			return err
		}
		r.logger.Info("manifest written", "path", manifest)
	}

	if format == formatter.FormatJSON {
		data, err := shared.MarshalJSON(batch, true)
		if err != nil {
			return err
		}
		return r.writeOutput(append(data, '\n'), cmd.String("output"))
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Resolved %d of %d images\n", batch.Succeeded, batch.Total)
	for _, item := range batch.Items {
		if item.Err != nil {
			fmt.Fprintf(&buf, "\n✗ %s: %s\n", item.Path, item.Error)
			continue
		}
		data, err := formatter.RenderResolution(item.Result, format)
		if err != nil {
			return err
		}
		fmt.Fprintf(&buf, "\n✓ %s\n%s", item.Path, data)
	}
	return r.writeOutput(buf.Bytes(), cmd.String("output"))
}

// reportProgress logs updates until progress is closed. The returned channel closes after the last update.
func (r *Runner) reportProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}()
	return done
}
