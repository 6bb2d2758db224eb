package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Downloads   DownloadsConfig   `toml:"downloads"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
//
// The redirect URI must exactly match the URI registered with the Spotify
// application; the requested scope is fixed to read-only playlist access.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	OpenBrowser       bool   `toml:"open_browser"`
	SessionTTLMinutes int    `toml:"session_ttl_minutes"`
}

// DownloadsConfig contains track acquisition settings.
type DownloadsConfig struct {
	DefaultCap           int     `toml:"default_cap"`
	AudioFormat          string  `toml:"audio_format"`
	AudioQuality         string  `toml:"audio_quality"`
	SearchTimeoutSeconds int     `toml:"search_timeout_seconds"`
	Workers              int     `toml:"workers"`
	RateLimit            float64 `toml:"rate_limit"`
	PauseMS              int     `toml:"pause_ms"`
	InstallYTDLP         bool    `toml:"install_ytdlp"`
}

// Addr returns the host:port pair the HTTP server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SessionTTL returns the idle lifetime of a user session.
func (s ServerConfig) SessionTTL() time.Duration {
	if s.SessionTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(s.SessionTTLMinutes) * time.Minute
}

// SearchTimeout returns the bounded timeout applied to each track search.
func (d DownloadsConfig) SearchTimeout() time.Duration {
	if d.SearchTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(d.SearchTimeoutSeconds) * time.Second
}

// Pause returns the fixed pause inserted between sequential acquisitions.
func (d DownloadsConfig) Pause() time.Duration {
	if d.PauseMS < 0 {
		return 0
	}
	return time.Duration(d.PauseMS) * time.Millisecond
}

// Validate checks that the configuration carries everything the OAuth flow
// needs. Called once at startup; the struct is immutable afterwards.
func (c *Config) Validate() error {
	sp := c.Credentials.Spotify
	if sp.ClientID == "" || sp.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret must be set", ErrMissingCredentials)
	}
	if sp.RedirectURI == "" {
		return fmt.Errorf("%w: spotify redirect_uri must be set", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
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
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
