package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	MusicBrainz MusicBrainzConfig `toml:"musicbrainz"`
	Ingest      IngestConfig      `toml:"ingest"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
//
// AccessToken short-circuits the client-credentials grant when set.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	AccessToken  string `toml:"access_token"`
}

// MusicBrainzConfig controls the recording lookup client and its retry budget.
type MusicBrainzConfig struct {
	BaseURL     string `toml:"base_url"`
	UserAgent   string `toml:"user_agent"`
	Enabled     bool   `toml:"enabled"`
	MaxAttempts int    `toml:"max_attempts"`
	CooldownMS  int    `toml:"cooldown_ms"`
	SpacingMS   int    `toml:"spacing_ms"`
	TimeoutMS   int    `toml:"timeout_ms"`
	ProxyURL    string `toml:"proxy_url"`
}

// IngestConfig controls playlist paging and deck output.
type IngestConfig struct {
	PageSize int    `toml:"page_size"`
	Market   string `toml:"market"`
	PacingMS int    `toml:"pacing_ms"`
	CodeType string `toml:"code_type"`
	Owner    string `toml:"owner"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	CacheTTLS  int    `toml:"cache_ttl_s"`
	CORSOrigin string `toml:"cors_origin"`
}

func (c MusicBrainzConfig) Cooldown() time.Duration { return ms(c.CooldownMS) }
func (c MusicBrainzConfig) Spacing() time.Duration { return ms(c.SpacingMS) }
func (c MusicBrainzConfig) Timeout() time.Duration { return ms(c.TimeoutMS) }
func (c IngestConfig) Pacing() time.Duration { return ms(c.PacingMS) }
func (c ServerConfig) CacheTTL() time.Duration { return time.Duration(c.CacheTTLS) * time.Second }

// Addr returns the host:port pair the proxy listens on.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// Validate reports the first setting that would make a run misbehave.
func (c *Config) Validate() error {
	switch {
	case c.MusicBrainz.MaxAttempts < 1:
		return fmt.Errorf("%w: musicbrainz.max_attempts must be at least 1", ErrInvalidConfig)
	case c.MusicBrainz.CooldownMS < 0 || c.MusicBrainz.SpacingMS < 0 || c.MusicBrainz.TimeoutMS < 0:
		return fmt.Errorf("%w: musicbrainz durations must not be negative", ErrInvalidConfig)
	case c.MusicBrainz.Enabled && c.MusicBrainz.ProxyURL == "" && strings.TrimSpace(c.MusicBrainz.UserAgent) == "":
		return fmt.Errorf("%w: musicbrainz.user_agent is required", ErrInvalidConfig)
	case c.Ingest.PageSize < 1 || c.Ingest.PageSize > 100:
		return fmt.Errorf("%w: ingest.page_size must be between 1 and 100", ErrInvalidConfig)
	case c.Ingest.PacingMS < 0:
		return fmt.Errorf("%w: ingest.pacing_ms must not be negative", ErrInvalidConfig)
	case c.Ingest.CodeType != "qr" && c.Ingest.CodeType != "spotify":
		return fmt.Errorf("%w: ingest.code_type must be qr or spotify, got %q", ErrInvalidConfig, c.Ingest.CodeType)
	case c.Server.CacheTTLS < 0:
		return fmt.Errorf("%w: server.cache_ttl_s must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their values from [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %w", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveConfig encodes config as TOML and writes it to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
