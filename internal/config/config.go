// Package config loads runtime settings from defaults, an optional TOML
// file, the environment and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/naoina/toml"

	"github.com/litescript/ls-orrery/internal/astro"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/engine"
	"github.com/litescript/ls-orrery/internal/ephem"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// External backends.
const (
	BackendService = "service"
	BackendJPLFile = "jplfile"
)

const (
	DefaultRefresh = time.Second
	MinRefresh     = 1 * time.Second
	MaxRefresh     = 5 * time.Minute
)

// Environment variables consulted by ApplyEnv.
const (
	EnvEphemURL   = "ORRERY_EPHEM_URL"
	EnvEphemFile  = "ORRERY_EPHEM_FILE"
	EnvListenAddr = "ORRERY_LISTEN_ADDR"
	EnvSource     = "ORRERY_SOURCE"
	EnvLeap       = "ORRERY_LEAP_SECONDS"
)

// Duration is a time.Duration that reads and writes as "1m30s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds all runtime settings.
type Config struct {
	Source         string             `toml:"source"`  // model | external
	Backend        string             `toml:"backend"` // service | jplfile
	ServiceURL     string             `toml:"service_url"`
	JPLFile        string             `toml:"jpl_file"`
	RequestTimeout Duration           `toml:"request_timeout"`
	Refresh        Duration           `toml:"refresh"`
	LeapSeconds    float64            `toml:"leap_seconds"` // TAI-UTC
	Longitudes     map[string]float64 `toml:"longitudes"`   // degrees east, by body name
	LogLevel       string             `toml:"log_level"`
	LogFile        string             `toml:"log_file"`
	ListenAddr     string             `toml:"listen_addr"`
	RateLimit      float64            `toml:"rate_limit"` // API requests/s per client
	RateBurst      int                `toml:"rate_burst"`
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Source:         ephem.ModeModel.String(),
		Backend:        BackendService,
		ServiceURL:     ephem.DefaultServiceURL,
		RequestTimeout: Duration{ephem.DefaultTimeout},
		Refresh:        Duration{DefaultRefresh},
		LeapSeconds:    astro.DefaultLeapSeconds,
		Longitudes:     map[string]float64{},
		LogLevel:       "info",
		ListenAddr:     ":8080",
		RateLimit:      10,
		RateBurst:      20,
	}
}

// Load returns the defaults overlaid with the TOML file at path.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Longitudes == nil {
		cfg.Longitudes = map[string]float64{}
	}
	return cfg, nil
}

// ApplyEnv overlays settings from environment variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvEphemURL); ok && v != "" {
		c.ServiceURL = v
	}
	if v, ok := lookup(EnvEphemFile); ok && v != "" {
		c.JPLFile = v
		c.Backend = BackendJPLFile
	}
	if v, ok := lookup(EnvListenAddr); ok && v != "" {
		c.ListenAddr = v
	}
	if v, ok := lookup(EnvSource); ok && v != "" {
		c.Source = v
	}
	if v, ok := lookup(EnvLeap); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLeap, err)
		}
		c.LeapSeconds = f
	}
	return nil
}

// SetLongitude parses a BODY=DEG assignment.
func (c *Config) SetLongitude(assign string) error {
	name, deg, ok := strings.Cut(assign, "=")
	if !ok {
		return fmt.Errorf("%w: longitude %q is not BODY=DEG", ErrInvalid, assign)
	}
	b, err := bodies.Parse(name)
	if err != nil {
		return err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(deg), 64)
	if err != nil {
		return fmt.Errorf("%w: longitude for %s: %v", ErrInvalid, b, err)
	}
	if c.Longitudes == nil {
		c.Longitudes = map[string]float64{}
	}
	c.Longitudes[b.String()] = v
	return nil
}

// ClampRefresh bounds the refresh interval to [MinRefresh, MaxRefresh].
func (c *Config) ClampRefresh() {
	if c.Refresh.Duration < MinRefresh {
		c.Refresh.Duration = MinRefresh
	} else if c.Refresh.Duration > MaxRefresh {
		c.Refresh.Duration = MaxRefresh
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := ephem.ParseMode(c.Source); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.Backend {
	case BackendService:
		if c.ServiceURL == "" {
			return fmt.Errorf("%w: service backend needs a URL", ErrInvalid)
		}
	case BackendJPLFile:
		if c.JPLFile == "" {
			return fmt.Errorf("%w: jplfile backend needs a file path", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalid, c.Backend)
	}
	if c.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalid)
	}
	if c.LeapSeconds < 0 {
		return fmt.Errorf("%w: leap seconds must not be negative", ErrInvalid)
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("%w: rate limit and burst must be positive", ErrInvalid)
	}
	if _, err := c.BodyLongitudes(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Mode returns the configured source mode.
func (c Config) Mode() ephem.Mode {
	m, _ := ephem.ParseMode(c.Source)
	return m
}

// TimeScale returns the configured UTC->TT parameters.
func (c Config) TimeScale() astro.TimeScale {
	return astro.TimeScale{LeapSeconds: c.LeapSeconds}
}

// BodyLongitudes resolves the name-keyed longitude table.
func (c Config) BodyLongitudes() (map[bodies.Body]float64, error) {
	out := make(map[bodies.Body]float64, len(c.Longitudes))
	for name, deg := range c.Longitudes {
		b, err := bodies.Parse(name)
		if err != nil {
			return nil, err
		}
		out[b] = deg
	}
	return out, nil
}

// Engine returns the clock-evaluation settings. Call Validate first.
func (c Config) Engine() engine.Config {
	lons, _ := c.BodyLongitudes()
	return engine.Config{Longitudes: lons, TimeScale: c.TimeScale()}
}
