package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/marvimarv/tunequest-card-creator/internal/server"
	"github.com/marvimarv/tunequest-card-creator/internal/shared"
)

// Serve runs the lookup proxy until the process is interrupted.
//
// The proxy always talks to MusicBrainz directly, even when musicbrainz.proxy_url is set.
// The ingestion stream is only offered when Spotify credentials are configured.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("%w: invalid port %d", shared.ErrInvalidFlag, cfg.Port)
	}

	deckOpts, err := r.deckOptions(cmd)
	if err != nil {
		return err
	}

	opts := server.Options{
		Addr:       cfg.Addr(),
		CORSOrigin: cfg.CORSOrigin,
		CacheTTL:   cfg.CacheTTL(),
		Lookup:     r.musicBrainz(),
		Deck:       deckOpts,
		Logger:     r.logger,
	}

	if source, err := r.playlistSource(ctx); err == nil {
		opts.Ingester = r.newIngester(source, opts.Lookup, r.config.MusicBrainz.Enabled)
	} else {
		r.logger.Warn("ingest stream disabled", "err", err)
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}
