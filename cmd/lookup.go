package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/marvimarv/tunequest-card-creator/internal/musicbrainz"
	"github.com/marvimarv/tunequest-card-creator/internal/normalize"
	"github.com/marvimarv/tunequest-card-creator/internal/shared"
)

// Lookup runs one year lookup through the configured client or proxy and prints the outcome.
func (r *Runner) Lookup(ctx context.Context, cmd *cli.Command) error {
	track := cmd.String("track")
	if !cmd.Bool("raw") {
		track = normalize.Title(track)
	}
	artist := cmd.String("artist")

	res := r.yearLookup().LookupYear(ctx, track, artist)

	if cmd.Bool("json") {
		if err := r.writeJSON(res, true); err != nil {
			return err
		}
	} else {
		switch res.Outcome {
		case musicbrainz.Found:
			r.writePlain("✓ %s - %s: %s\n", artist, track, res.Year)
		case musicbrainz.NotFound:
			r.writePlain("– %s - %s: no release year on MusicBrainz\n", artist, track)
		default:
			r.writePlain("✗ %s - %s: %s\n", artist, track, res.Outcome)
		}
		r.writePlain("  attempts: %d, status: %d\n", res.Attempts, res.Status)
	}

	switch res.Outcome {
	case musicbrainz.TransientFailure:
		return fmt.Errorf("%w: lookup failed after %d attempts: %w", shared.ErrServiceUnavailable, res.Attempts, res.Err)
	case musicbrainz.HardFailure:
		return fmt.Errorf("%w: lookup rejected with status %d: %w", shared.ErrAPIRequest, res.Status, res.Err)
	}
	return nil
}
