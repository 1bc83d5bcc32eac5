// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// ingestCommand builds a card deck from one or more playlists
func ingestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Aliases:   []string{"deck"},
		Usage:     "Fetch a Spotify playlist, reconcile release years and export a card deck",
		ArgsUsage: "<playlist-url> [playlist-url...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (json, csv, markdown, txt)",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file, '-' for stdout (directory when several playlists are given)",
			},
			&cli.BoolFlag{
				Name:  "no-musicbrainz",
				Usage: "Only use Spotify release dates",
			},
			&cli.StringFlag{
				Name:  "code",
				Usage: "Card back code type (qr, spotify)",
			},
			&cli.StringFlag{
				Name:  "owner",
				Usage: "Owner name printed on every card",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Playlists ingested in parallel when several are given (max 4)",
				Value: 2,
			},
		},
		Action: r.Ingest,
	}
}

// lookupCommand runs a single MusicBrainz year lookup
func lookupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lookup",
		Usage: "Look up the earliest release year of a recording on MusicBrainz",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "track",
				Aliases:  []string{"t"},
				Usage:    "Track title",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "artist",
				Aliases:  []string{"a"},
				Usage:    "Artist name",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Skip title normalization",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Lookup,
	}
}

// serveCommand runs the lookup proxy
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MusicBrainz lookup proxy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (default from config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (default from config)",
			},
		},
		Action: r.Serve,
	}
}

// uiCommand returns the top-level TUI command for interactive ingestion.
func uiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "ui",
		Aliases:   []string{"tui"},
		Usage:     "Ingest a playlist in an interactive terminal UI",
		ArgsUsage: "<playlist-url>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format used when saving (json, csv, markdown, txt)",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Deck file written when saving",
			},
			&cli.BoolFlag{
				Name:  "no-musicbrainz",
				Usage: "Only use Spotify release dates",
			},
			&cli.StringFlag{
				Name:  "code",
				Usage: "Card back code type (qr, spotify)",
			},
			&cli.StringFlag{
				Name:  "owner",
				Usage: "Owner name printed on every card",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs go while the UI owns the terminal",
				Value: "tunequest-ui.log",
			},
		},
		Action: r.UI,
	}
}

// configCommand manages the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a config file with the default settings",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Path of the new config file",
						Value: "config.toml",
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration",
				Action: r.ConfigShow,
			},
		},
	}
}
