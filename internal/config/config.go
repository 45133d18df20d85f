// Package config loads screenshare settings from an optional TOML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/zsiec/screenshare/internal/capture"
	"github.com/zsiec/screenshare/internal/media"
	"github.com/zsiec/screenshare/internal/transport"
)

// Duration is a time.Duration written as a string ("5s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the full configuration for both sides of a session.
type Config struct {
	LogLevel string `toml:"log_level"`
	Server   Server `toml:"server"`
	Client   Client `toml:"client"`
}

// Server configures the capturing side.
type Server struct {
	Listen         string   `toml:"listen"`
	Source         string   `toml:"source"`
	Display        int      `toml:"display"`
	Width          int      `toml:"width"`
	Height         int      `toml:"height"`
	FPS            int      `toml:"fps"`
	Codec          string   `toml:"codec"`
	Quality        int      `toml:"quality"`
	Limit          int      `toml:"limit"`
	WriteTimeout   Duration `toml:"write_timeout"`
	ShutdownLinger Duration `toml:"shutdown_linger"`
	SkipWhenIdle   bool     `toml:"skip_when_idle"`
	APIAddr        string   `toml:"api_addr"`
	MetricsAddr    string   `toml:"metrics_addr"`
}

// Client configures the viewing side.
type Client struct {
	Server       string   `toml:"server"`
	IdleTimeout  Duration `toml:"idle_timeout"`
	LogLines     int      `toml:"log_lines"`
	PollInterval Duration `toml:"poll_interval"`
	Headless     bool     `toml:"headless"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Server: Server{
			Listen:         "tcp://0.0.0.0:7000",
			Source:         capture.SourceScreen,
			Display:        -1,
			Width:          1920,
			Height:         1080,
			FPS:            30,
			Codec:          "mjpeg",
			Quality:        70,
			WriteTimeout:   Duration{5 * time.Second},
			ShutdownLinger: Duration{2 * time.Second},
			SkipWhenIdle:   true,
			APIAddr:        ":7080",
		},
		Client: Client{
			Server:       "tcp://127.0.0.1:7000",
			IdleTimeout:  Duration{15 * time.Second},
			LogLines:     64,
			PollInterval: Duration{16 * time.Millisecond},
		},
	}
}

// Load returns the defaults overlaid with the TOML file at path (skipped
// when path is empty) and then the environment. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
		if keys := md.Undecoded(); len(keys) > 0 {
			names := make([]string, len(keys))
			for i, k := range keys {
				names[i] = k.String()
			}
			return Config{}, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(names, ", "))
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses TOML text over the defaults without consulting the
// environment.
func Decode(text string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(text, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	envOr := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	envOr("SCREENSHARE_LISTEN", &c.Server.Listen)
	envOr("SCREENSHARE_SERVER", &c.Client.Server)
	envOr("SCREENSHARE_SOURCE", &c.Server.Source)
	envOr("SCREENSHARE_CODEC", &c.Server.Codec)
	envOr("SCREENSHARE_API_ADDR", &c.Server.APIAddr)
	envOr("SCREENSHARE_METRICS_ADDR", &c.Server.MetricsAddr)

	if v, ok := lookup("SCREENSHARE_FPS"); ok && v != "" {
		fps, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCREENSHARE_FPS: %w", err)
		}
		c.Server.FPS = fps
	}
	if v, ok := lookup("DEBUG"); ok && v != "" {
		c.LogLevel = "debug"
	}
	return nil
}

// Debug reports whether debug logging is requested.
func (c Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

// Validate checks every field both commands depend on.
func (c Config) Validate() error {
	var errs []error
	s := c.Server
	if s.Width <= 0 || s.Height <= 0 {
		errs = append(errs, fmt.Errorf("server: invalid size %dx%d", s.Width, s.Height))
	}
	if s.FPS <= 0 {
		errs = append(errs, fmt.Errorf("server: invalid fps %d", s.FPS))
	}
	if _, err := media.ParseCodecID(s.Codec); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	switch s.Source {
	case capture.SourceScreen, capture.SourcePattern:
	default:
		errs = append(errs, fmt.Errorf("server: unknown source %q", s.Source))
	}
	if s.Quality < 1 || s.Quality > 100 {
		errs = append(errs, fmt.Errorf("server: quality %d out of range 1-100", s.Quality))
	}
	if s.Limit < 0 {
		errs = append(errs, fmt.Errorf("server: negative limit %d", s.Limit))
	}
	if _, _, err := transport.ParseAddr(s.Listen); err != nil {
		errs = append(errs, fmt.Errorf("server: listen: %w", err))
	}
	if _, _, err := transport.ParseAddr(c.Client.Server); err != nil {
		errs = append(errs, fmt.Errorf("client: server: %w", err))
	}
	if c.Client.IdleTimeout.Duration < 0 {
		errs = append(errs, errors.New("client: negative idle_timeout"))
	}
	if c.Client.PollInterval.Duration <= 0 {
		errs = append(errs, errors.New("client: poll_interval must be positive"))
	}
	return errors.Join(errs...)
}
