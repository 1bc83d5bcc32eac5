package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/marvimarv/tunequest-card-creator/internal/formatter"
	"github.com/marvimarv/tunequest-card-creator/internal/musicbrainz"
	"github.com/marvimarv/tunequest-card-creator/internal/services"
	"github.com/marvimarv/tunequest-card-creator/internal/shared"
	"github.com/marvimarv/tunequest-card-creator/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services are built lazily from the loaded config so that commands which never touch
// Spotify or MusicBrainz work without credentials.
type Runner struct {
	config  *shared.Config
	spotify services.PlaylistSource
	lookup  services.YearLookup
	logger  *log.Logger
	output  io.Writer

	mu sync.Mutex
	mb *musicbrainz.Client
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Spotify services.PlaylistSource // Overrides the configured Spotify client
	Lookup  services.YearLookup     // Overrides the configured MusicBrainz client or proxy
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		spotify: opts.Spotify,
		lookup:  opts.Lookup,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

// App returns the root command.
func (r *Runner) App() *cli.Command {
	return &cli.Command{
		Name:    "tunequest",
		Usage:   "Turn Spotify playlists into printable music timeline cards",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("TUNEQUEST_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before:   r.before,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		ingestCommand, lookupCommand, serveCommand, uiCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the config file named by --config. A missing default file is not an error.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	config, err := shared.LoadConfig(path)
	switch {
	case err == nil:
		r.config = config
		r.logger.Debug("config loaded", "path", path)
	case errors.Is(err, shared.ErrMissingConfig) && !cmd.IsSet("config"):
		r.logger.Debug("no config file, using defaults", "path", path)
	default:
		return ctx, err
	}
	return ctx, nil
}

// Close stops the MusicBrainz client if one was started.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mb != nil {
		r.mb.Close()
		r.mb = nil
	}
}

// playlistSource returns the Spotify client, creating it from the configured credentials.
func (r *Runner) playlistSource(ctx context.Context) (services.PlaylistSource, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}
	svc, err := services.NewSpotifyService(ctx, r.config.Credentials.Spotify, r.config.Ingest.Market,
		services.WithSpotifyLogger(r.logger))
	if err != nil {
		return nil, err
	}
	r.spotify = svc
	return svc, nil
}

// musicBrainz returns the shared direct MusicBrainz client.
func (r *Runner) musicBrainz() services.YearLookup {
	if r.lookup != nil {
		return r.lookup
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mb == nil {
		r.mb = musicbrainz.NewClient(musicbrainz.ConfigFrom(r.config.MusicBrainz, r.logger))
	}
	return r.mb
}

// yearLookup returns the proxy client when musicbrainz.proxy_url is set, otherwise the direct client.
func (r *Runner) yearLookup() services.YearLookup {
	if r.lookup != nil {
		return r.lookup
	}
	if u := r.config.MusicBrainz.ProxyURL; u != "" {
		return services.NewMusicBrainzProxy(u, nil, r.logger)
	}
	return r.musicBrainz()
}

// newIngester builds an ingester over source. lookup is only consulted when secondary is set.
func (r *Runner) newIngester(source services.PlaylistSource, lookup services.YearLookup, secondary bool) *tasks.Ingester {
	if !secondary {
		lookup = nil
	}
	reconciler := tasks.NewReconciler(source, lookup, r.config.Ingest.Pacing(), r.logger)
	return tasks.NewIngester(source, reconciler, tasks.IngesterOpts{
		PageSize:         r.config.Ingest.PageSize,
		SecondaryEnabled: secondary,
		Logger:           r.logger,
	})
}

// deckOptions resolves the code type and owner from flags, falling back to the config.
func (r *Runner) deckOptions(cmd *cli.Command) (formatter.DeckOptions, error) {
	code := r.config.Ingest.CodeType
	if cmd.IsSet("code") {
		code = cmd.String("code")
	}
	codeType, err := formatter.ParseCodeType(code)
	if err != nil {
		return formatter.DeckOptions{}, err
	}

	owner := r.config.Ingest.Owner
	if cmd.IsSet("owner") {
		owner = cmd.String("owner")
	}
	return formatter.DeckOptions{Owner: owner, CodeType: codeType}, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
