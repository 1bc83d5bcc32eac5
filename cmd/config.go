package main

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v3"

	"github.com/marvimarv/tunequest-card-creator/internal/shared"
)

// ConfigInit writes the default config file to --path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("  Add your Spotify client id and secret, and a contact address to musicbrainz.user_agent.\n")
	return nil
}

// ConfigShow prints the effective configuration with secrets masked.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	masked := *r.config
	masked.Credentials.Spotify.ClientSecret = mask(masked.Credentials.Spotify.ClientSecret)
	masked.Credentials.Spotify.AccessToken = mask(masked.Credentials.Spotify.AccessToken)

	if err := toml.NewEncoder(r.output).Encode(masked); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
