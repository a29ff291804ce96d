// Package config loads sitelens settings from defaults, an optional YAML
// file and SITELENS_* environment variables, in that order.
package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/ka2n/sitelens/api"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/morikuni/failure/v2"
)

// ErrorCode defines error types for configuration
type ErrorCode string

const (
	ErrConfigRead    ErrorCode = "ConfigRead"
	ErrConfigInvalid ErrorCode = "ConfigInvalid"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

// DefaultPath is the config file read when --config is not given
const DefaultPath = "sitelens.yml"

// Config holds the sitelens settings
type Config struct {
	// Listen is the address `serve` and `relay` listen on
	Listen string `koanf:"listen"`
	// Upstream is the site-ranking API the relay forwards to
	Upstream string `koanf:"upstream"`
	// RelayURL is the endpoint the widget fetches from. Empty means the
	// same-origin relay for `serve` and Upstream for terminal commands.
	RelayURL string `koanf:"relay_url"`
	// Limit is the result-count limit sent with every fetch
	Limit int `koanf:"limit"`
	// AllowedOrigins enables CORS on the relay for other origins
	AllowedOrigins []string `koanf:"allowed_origins"`
	Debug          bool     `koanf:"debug"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	return &Config{
		Listen:   ":8081",
		Upstream: api.DefaultEndpoint,
		Limit:    api.DefaultLimit,
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (SITELENS_*). A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, failure.Wrap(err, failure.WithCode(ErrConfigRead),
				failure.Message("Failed to read config file"),
				failure.Context{"path": path})
		}
	} else if !os.IsNotExist(err) {
		return nil, failure.Wrap(err, failure.WithCode(ErrConfigRead), failure.Context{"path": path})
	}

	// SITELENS_RELAY_URL -> relay_url, etc.
	if err := k.Load(env.Provider("SITELENS_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SITELENS_"))
	}), nil); err != nil {
		return nil, failure.Wrap(err, failure.WithCode(ErrConfigRead), failure.Message("Failed to read environment"))
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, failure.Wrap(err, failure.WithCode(ErrConfigInvalid), failure.Message("Invalid configuration"))
	}

	return cfg, nil
}

// Validate checks that the configuration contains usable values
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return invalid("listen", c.Listen, err)
	}
	if err := checkURL(c.Upstream); err != nil {
		return invalid("upstream", c.Upstream, err)
	}
	if c.RelayURL != "" {
		if err := checkURL(c.RelayURL); err != nil {
			return invalid("relay_url", c.RelayURL, err)
		}
	}
	if c.Limit <= 0 {
		return failure.New(ErrConfigInvalid,
			failure.Message("limit must be positive"),
			failure.Context{"limit": strconv.Itoa(c.Limit)},
		)
	}
	return nil
}

// LocalURL returns the URL of path on the address `serve` listens on
func (c *Config) LocalURL(path string) string {
	host, port, _ := net.SplitHostPort(c.Listen)
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return (&url.URL{Scheme: "http", Host: net.JoinHostPort(host, port), Path: path}).String()
}

// ServeRelayURL returns the endpoint the browser widget fetches from:
// RelayURL when set, otherwise the relay mounted at path on Listen.
func (c *Config) ServeRelayURL(path string) string {
	if c.RelayURL != "" {
		return c.RelayURL
	}
	return c.LocalURL(path)
}

// DirectRelayURL returns the endpoint terminal commands fetch from:
// RelayURL when set, otherwise Upstream.
func (c *Config) DirectRelayURL() string {
	if c.RelayURL != "" {
		return c.RelayURL
	}
	return c.Upstream
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return failure.New(ErrConfigInvalid, failure.Message("URL scheme must be http or https"))
	}
	if u.Host == "" {
		return failure.New(ErrConfigInvalid, failure.Message("URL has no host"))
	}
	return nil
}

func invalid(key, value string, err error) error {
	return failure.Wrap(err, failure.WithCode(ErrConfigInvalid),
		failure.Message("Invalid "+key),
		failure.Context{key: value},
	)
}
