// package tasks implements the playlist ingestion pipeline.
//
// The core abstraction is Ingester, which pages through a Spotify playlist, cleans titles and
// reconciles release years track by track. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/marvimarv/tunequest-card-creator/internal/models"
	"github.com/marvimarv/tunequest-card-creator/internal/normalize"
	"github.com/marvimarv/tunequest-card-creator/internal/services"
	"github.com/marvimarv/tunequest-card-creator/internal/shared"
)

// DefaultPageSize is the number of playlist items requested per page.
const DefaultPageSize = 50

var playlistURL = regexp.MustCompile(`^https://open\.spotify\.com/playlist/([a-zA-Z0-9-]+)`)

// PlaylistID extracts the playlist id from a Spotify share link such as
// https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc.
func PlaylistID(rawURL string) (string, error) {
	m := playlistURL.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidPlaylistURL, rawURL)
	}
	return m[1], nil
}

// PlaylistIngester turns a playlist link into an ordered list of tracks with reconciled years.
type PlaylistIngester interface {
	Ingest(ctx context.Context, playlistURL string, progress chan<- ProgressUpdate) ([]models.Track, error)
}

// Ingester implements [PlaylistIngester] with a Spotify playlist source and a [Reconciler].
type Ingester struct {
	source     services.PlaylistSource
	reconciler *Reconciler
	pageSize   int
	secondary  bool
	logger     *log.Logger
}

// IngesterOpts configures an [Ingester].
type IngesterOpts struct {
	PageSize         int         // Items per page (default: 50)
	SecondaryEnabled bool        // Consult MusicBrainz for every track
	Logger           *log.Logger // Defaults to a discarding logger
}

// NewIngester creates a new Ingester reading from source and reconciling with reconciler.
func NewIngester(source services.PlaylistSource, reconciler *Reconciler, opts IngesterOpts) *Ingester {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Ingester{
		source:     source,
		reconciler: reconciler,
		pageSize:   opts.PageSize,
		secondary:  opts.SecondaryEnabled,
		logger:     shared.WithLogger(opts.Logger, "component", "ingest"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Ingest validates playlistURL, then fetches every page in cursor order and reconciles each
// track sequentially.
//
// An invalid link fails with [shared.ErrInvalidPlaylistURL] before any request is made. A
// failed page fetch aborts the run with an [shared.ErrAPIRequest] error and no partial result.
// Metadata failures for single tracks never abort; they degrade to the fallback year.
func (i *Ingester) Ingest(ctx context.Context, playlistURL string, progress chan<- ProgressUpdate) ([]models.Track, error) {
	id, err := PlaylistID(playlistURL)
	if err != nil {
		sendProgress(progress, ingestFailedUpdate(err))
		return nil, err
	}

	logger := i.logger.With("run", shared.GenerateID(), "playlist", id)
	logger.Info("ingest started", "page_size", i.pageSize, "musicbrainz", i.secondary)

	tracks := []models.Track{}
	offset, position := 0, 0

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, i.cancelled(logger, progress, err)
		}

		sendProgress(progress, fetchPageUpdate(page, offset))
		p, err := i.source.PlaylistItems(ctx, id, i.pageSize, offset)
		if err != nil {
			err = fmt.Errorf("%w: failed to fetch page %d of playlist %s: %w", shared.ErrAPIRequest, page, id, err)
			logger.Error("ingest aborted", "page", page, "offset", offset, "err", err)
			sendProgress(progress, ingestFailedUpdate(err))
			return nil, err
		}
		logger.Debug("page fetched", "page", page, "offset", offset, "items", len(p.Items))

		for _, item := range p.Items {
			if err := ctx.Err(); err != nil {
				return nil, i.cancelled(logger, progress, err)
			}

			position++
			if item.Track == nil || strings.TrimSpace(item.Track.Name) == "" {
				logger.Debug("skipping item", "position", position)
				sendProgress(progress, skipTrackUpdate(len(tracks), position))
				continue
			}

			tr := models.Track{
				ID:      item.Track.ID,
				Title:   normalize.Title(item.Track.Name),
				Artists: item.Track.ArtistNames(),
			}
			tr.Year = i.reconciler.Reconcile(ctx, tr.ID, item.Track.Album.ReleaseDate, tr.Title, tr.PrimaryArtist(), i.secondary)

			tracks = append(tracks, tr)
			sendProgress(progress, reconcileTrackUpdate(len(tracks), tr))
		}

		// Lookups swallow cancellation, so a run cancelled on its last page must not pass as done.
		if err := ctx.Err(); err != nil {
			return nil, i.cancelled(logger, progress, err)
		}

		if p.Next == nil {
			break
		}

		step := p.Limit
		if step <= 0 {
			step = i.pageSize
		}
		offset += step
	}

	logger.Info("ingest finished", "tracks", len(tracks), "items", position)
	sendProgress(progress, ingestDoneUpdate(tracks))
	return tracks, nil
}

func (i *Ingester) cancelled(logger *log.Logger, progress chan<- ProgressUpdate, err error) error {
	logger.Warn("ingest cancelled", "err", err)
	sendProgress(progress, ingestFailedUpdate(err))
	return err
}
