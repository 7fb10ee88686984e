package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	minVerifierLength = 43
	maxVerifierLength = 128
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Spotify         SpotifyConfig         `toml:"spotify"`
	Recommendations RecommendationsConfig `toml:"recommendations"`
	Database        DatabaseConfig        `toml:"database"`
	Server          ServerConfig          `toml:"server"`
	Logging         LoggingConfig         `toml:"logging"`
}

// SpotifyConfig contains the public client settings for the authorization code flow.
//
// There is no client secret: the flow relies on a proof key instead.
type SpotifyConfig struct {
	ClientID       string `toml:"client_id"`
	AuthorizeURL   string `toml:"authorize_url"`
	TokenURL       string `toml:"token_url"`
	RedirectURL    string `toml:"redirect_url"`
	Scope          string `toml:"scope"`
	VerifierLength int    `toml:"verifier_length"`
}

// RecommendationsConfig contains settings for the recommendation endpoint.
type RecommendationsConfig struct {
	Endpoint          string  `toml:"endpoint"`
	RateLimit         float64 `toml:"rate_limit"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RegistrationEmail string  `toml:"registration_email"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the loopback callback server.
type ServerConfig struct {
	CallbackTimeoutSeconds int `toml:"callback_timeout_seconds"`
}

// LoggingConfig contains log level and TUI log file settings.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// requiredSetting pairs a config value with the names a user would set it under.
type requiredSetting struct {
	key   string
	env   string
	value *string
}

func (c *Config) required() []requiredSetting {
	return []requiredSetting{
		{key: "spotify.client_id", env: "SPOTIFY_CLIENT_ID", value: &c.Spotify.ClientID},
		{key: "spotify.authorize_url", env: "SPOTIFY_AUTH_URL", value: &c.Spotify.AuthorizeURL},
		{key: "spotify.token_url", env: "SPOTIFY_ACCESS_TOKEN_URL", value: &c.Spotify.TokenURL},
		{key: "spotify.redirect_url", env: "SPOTIFY_AUTH_REDIRECT_URL", value: &c.Spotify.RedirectURL},
		{key: "recommendations.endpoint", env: "SPOTME_TOP_ITEMS_URL", value: &c.Recommendations.Endpoint},
	}
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file fall back to the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads envFile (when it exists) into the process environment and lets the
// environment override the required settings.
//
// Existing environment variables win over values in envFile.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("failed to load env file %s: %w", envFile, err)
			}
		}
	}

	for _, s := range c.required() {
		if v, ok := os.LookupEnv(s.env); ok && v != "" {
			*s.value = v
		}
	}
	return nil
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	for _, s := range c.required() {
		if *s.value == "" {
			errs = append(errs, fmt.Errorf("%w: %s (env %s)", ErrMissingConfig, s.key, s.env))
		}
	}

	if n := c.Spotify.VerifierLength; n < minVerifierLength || n > maxVerifierLength {
		errs = append(errs, fmt.Errorf("%w: spotify.verifier_length must be between %d and %d, got %d",
			ErrInvalidConfig, minVerifierLength, maxVerifierLength, n))
	}

	return errors.Join(errs...)
}

// CallbackTimeout returns how long the loopback server waits for the redirect.
func (c *Config) CallbackTimeout() time.Duration {
	if c.Server.CallbackTimeoutSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.Server.CallbackTimeoutSeconds) * time.Second
}

// RequestTimeout returns the timeout applied to recommendation and token requests.
func (c *Config) RequestTimeout() time.Duration {
	if c.Recommendations.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Recommendations.TimeoutSeconds) * time.Second
}
