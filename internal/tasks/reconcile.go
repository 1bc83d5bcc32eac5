package tasks

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/marvimarv/tunequest-card-creator/internal/models"
	"github.com/marvimarv/tunequest-card-creator/internal/musicbrainz"
	"github.com/marvimarv/tunequest-card-creator/internal/services"
	"github.com/marvimarv/tunequest-card-creator/internal/shared"
)

// ReleaseDateSource resolves the album release date of a single track.
type ReleaseDateSource interface {
	TrackReleaseDate(ctx context.Context, trackID string) (string, error)
}

// Reconciler merges the release years reported by Spotify and MusicBrainz into one year per track.
type Reconciler struct {
	primary   ReleaseDateSource
	secondary services.YearLookup
	pacing    time.Duration
	logger    *log.Logger
}

// NewReconciler creates a Reconciler. secondary may be nil, which disables MusicBrainz
// regardless of the per-call flag. pacing is the pause after every primary lookup.
func NewReconciler(primary ReleaseDateSource, secondary services.YearLookup, pacing time.Duration, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Reconciler{
		primary:   primary,
		secondary: secondary,
		pacing:    pacing,
		logger:    shared.WithLogger(logger, "component", "reconciler"),
	}
}

// Reconcile returns the earliest known year among the primary source, fallback and, when
// enabled, the secondary source.
//
// If the primary lookup fails the fallback's year is returned as-is and the secondary
// source is not consulted. Secondary failures of any kind leave the baseline untouched.
// The result is always one of the inputs, or [models.UnknownYear] if none is known.
func (r *Reconciler) Reconcile(ctx context.Context, trackID, fallback, title, artist string, secondaryEnabled bool) models.Year {
	logger := r.logger.With("track_id", trackID, "title", title)
	fallbackYear := models.ParseYear(fallback)

	date, err := r.primary.TrackReleaseDate(ctx, trackID)
	if err != nil {
		logger.Warn("primary lookup failed, using fallback", "fallback", fallbackYear, "err", err)
		return fallbackYear
	}
	r.pause(ctx)

	primaryYear := models.ParseYear(date)
	baseline := models.EarliestYear(primaryYear, fallbackYear)
	logger.Debug("baseline year", "primary", primaryYear, "fallback", fallbackYear, "baseline", baseline)

	if !secondaryEnabled || r.secondary == nil {
		return baseline
	}

	res := r.secondary.LookupYear(ctx, title, artist)
	switch res.Outcome {
	case musicbrainz.Found:
		year := models.EarliestYear(baseline, res.Year)
		logger.Info("year reconciled", "baseline", baseline, "musicbrainz", res.Year, "year", year)
		return year
	case musicbrainz.NotFound:
		logger.Debug("no musicbrainz year, keeping baseline", "year", baseline)
	default:
		logger.Warn("musicbrainz lookup failed, keeping baseline",
			"outcome", res.Outcome, "status", res.Status, "attempts", res.Attempts, "err", res.Err, "year", baseline)
	}
	return baseline
}

// pause waits for the pacing interval or until ctx is done.
func (r *Reconciler) pause(ctx context.Context) {
	if r.pacing <= 0 {
		return
	}
	t := time.NewTimer(r.pacing)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
