package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/marvimarv/tunequest-card-creator/internal/formatter"
	"github.com/marvimarv/tunequest-card-creator/internal/shared"
	"github.com/marvimarv/tunequest-card-creator/internal/tasks"
	"github.com/marvimarv/tunequest-card-creator/internal/ui"
)

// UI ingests a playlist inside the interactive terminal UI.
func (r *Runner) UI(ctx context.Context, cmd *cli.Command) error {
	switch cmd.Args().Len() {
	case 0:
		return fmt.Errorf("%w: a playlist URL is required", shared.ErrMissingArgument)
	case 1:
	default:
		return fmt.Errorf("%w: the UI ingests one playlist at a time", shared.ErrInvalidArgument)
	}
	playlistURL := cmd.Args().First()
	if _, err := tasks.PlaylistID(playlistURL); err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	deckOpts, err := r.deckOptions(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logFile, err := os.OpenFile(cmd.String("log-file"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	r.logger.SetOutput(logFile)
	defer r.logger.SetOutput(os.Stderr)

	source, err := r.playlistSource(ctx)
	if err != nil {
		return err
	}
	secondary := r.config.MusicBrainz.Enabled && !cmd.Bool("no-musicbrainz")
	ingester := r.newIngester(source, r.yearLookup(), secondary)

	if err := ui.Run(ctx, ingester, ui.Options{
		PlaylistURL: playlistURL,
		Format:      format,
		Output:      cmd.String("output"),
		Deck:        deckOpts,
	}); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
