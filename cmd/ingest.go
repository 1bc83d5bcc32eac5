package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/marvimarv/tunequest-card-creator/internal/formatter"
	"github.com/marvimarv/tunequest-card-creator/internal/shared"
	"github.com/marvimarv/tunequest-card-creator/internal/tasks"
)

// Ingest builds a card deck for each playlist URL argument.
//
// A single playlist is written to --output (default {playlist}_deck.{ext}, '-' for stdout).
// Several playlists are ingested in parallel into the --output directory with a manifest.
func (r *Runner) Ingest(ctx context.Context, cmd *cli.Command) error {
	urls := cmd.Args().Slice()
	if len(urls) == 0 {
		return fmt.Errorf("%w: at least one playlist URL is required", shared.ErrMissingArgument)
	}
	for _, u := range urls {
		if _, err := tasks.PlaylistID(u); err != nil {
			return err
		}
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	deckOpts, err := r.deckOptions(cmd)
	if err != nil {
		return err
	}

	source, err := r.playlistSource(ctx)
	if err != nil {
		return err
	}
	secondary := r.config.MusicBrainz.Enabled && !cmd.Bool("no-musicbrainz")
	ingester := r.newIngester(source, r.yearLookup(), secondary)

	if len(urls) > 1 {
		return r.ingestMany(ctx, ingester, urls, tasks.BatchOpts{
			Format:     format,
			OutputDir:  cmd.String("output"),
			NumWorkers: cmd.Int("workers"),
			Deck:       deckOpts,
		})
	}

	output := cmd.String("output")
	toStdout := output == "-"

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.printProgress(progressCh, done, toStdout)

	tracks, err := ingester.Ingest(ctx, urls[0], progressCh)
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	id, _ := tasks.PlaylistID(urls[0])
	deckOpts.PlaylistID = id
	deck := formatter.BuildDeck(tracks, deckOpts)

	if toStdout {
		data, err := formatter.Export(deck, format)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	file, err := formatter.WriteDeck(deck, format, output)
	if err != nil {
		return fmt.Errorf("%s export failed: %w", format, err)
	}

	r.writePlain("\n")
	r.writePlainHeader("Deck Complete!")
	r.writePlain("Playlist: %s\n", id)
	r.writePlain("Cards: %d on %d sheets\n", len(deck.Cards), deck.Pages)
	if unknown := deck.UnknownYears(); unknown > 0 {
		r.writePlain("Without year: %d\n", unknown)
	}
	r.writePlain("File: %s\n", file)
	return nil
}

func (r *Runner) ingestMany(ctx context.Context, ingester *tasks.Ingester, urls []string, opts tasks.BatchOpts) error {
	r.writePlain("Ingesting %d playlists...\n\n", len(urls))

	progressCh := make(chan tasks.ProgressUpdate, len(urls))
	done := make(chan struct{})
	go r.printProgress(progressCh, done, false)

	result, err := ingester.IngestMany(ctx, progressCh, urls, opts)
	close(progressCh)
	<-done
	if result == nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Batch Complete!")
	r.writePlain("Succeeded: %d/%d\n", result.Succeeded, result.TotalPlaylists)
	r.writePlain("Output: %s\n", result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}
	if result.Failed > 0 {
		r.writePlain("\nFailed playlists:\n")
		for _, res := range result.Results {
			if res.Error != nil {
				r.writePlain("  - %s: %v\n", res.PlaylistURL, res.Error)
			}
		}
	}
	return err
}

// printProgress writes updates until progress is closed, then closes done. With quiet set
// updates only go to the debug log.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}, quiet bool) {
	defer close(done)
	for update := range progress {
		if quiet {
			r.logger.Debug(update.Message, "phase", update.Phase)
			continue
		}
		switch update.Phase {
		case tasks.FetchPage:
			r.writePlain("📥 %s\n", update.Message)
		case tasks.ReconcileTrack, tasks.BatchPlaylist:
			r.writePlain("   %s\n", update.Message)
		case tasks.SkipTrack:
			r.logger.Debug(update.Message)
		}
	}
}
