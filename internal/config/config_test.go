package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestDecodeOverlaysDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Decode(`
log_level = "debug"

[server]
listen = "srt://0.0.0.0:7001"
fps = 60
codec = "raw"
write_timeout = "250ms"

[client]
idle_timeout = "0s"
`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Server.Listen != "srt://0.0.0.0:7001" {
		t.Errorf("Listen = %q", cfg.Server.Listen)
	}
	if cfg.Server.FPS != 60 {
		t.Errorf("FPS = %d, want 60", cfg.Server.FPS)
	}
	if cfg.Server.WriteTimeout.Duration != 250*time.Millisecond {
		t.Errorf("WriteTimeout = %v, want 250ms", cfg.Server.WriteTimeout)
	}
	if cfg.Client.IdleTimeout.Duration != 0 {
		t.Errorf("IdleTimeout = %v, want 0", cfg.Client.IdleTimeout)
	}
	if cfg.Server.Width != 1920 || cfg.Server.Height != 1080 {
		t.Errorf("size = %dx%d, want default 1920x1080", cfg.Server.Width, cfg.Server.Height)
	}
	if cfg.Server.ShutdownLinger.Duration != 2*time.Second {
		t.Errorf("ShutdownLinger = %v, want 2s", cfg.Server.ShutdownLinger)
	}
	if !cfg.Debug() {
		t.Error("Debug() = false, want true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestDecodeBadDuration(t *testing.T) {
	t.Parallel()
	if _, err := Decode("[server]\nwrite_timeout = \"soon\"\n"); err == nil {
		t.Fatal("expected error for bad duration")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()
	env := map[string]string{
		"SCREENSHARE_LISTEN":       "tcp://127.0.0.1:9000",
		"SCREENSHARE_SERVER":       "srt://10.0.0.1:9000",
		"SCREENSHARE_SOURCE":       "pattern",
		"SCREENSHARE_FPS":          "15",
		"SCREENSHARE_CODEC":        "raw",
		"SCREENSHARE_API_ADDR":     ":9090",
		"SCREENSHARE_METRICS_ADDR": ":9091",
		"DEBUG":                    "1",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	checks := []struct {
		name      string
		got, want string
	}{
		{"listen", cfg.Server.Listen, "tcp://127.0.0.1:9000"},
		{"server", cfg.Client.Server, "srt://10.0.0.1:9000"},
		{"source", cfg.Server.Source, "pattern"},
		{"codec", cfg.Server.Codec, "raw"},
		{"api", cfg.Server.APIAddr, ":9090"},
		{"metrics", cfg.Server.MetricsAddr, ":9091"},
		{"log level", cfg.LogLevel, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
	if cfg.Server.FPS != 15 {
		t.Errorf("FPS = %d, want 15", cfg.Server.FPS)
	}
}

func TestApplyEnvBadFPS(t *testing.T) {
	t.Parallel()
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) {
		if k == "SCREENSHARE_FPS" {
			return "fast", true
		}
		return "", false
	})
	if err == nil || !strings.Contains(err.Error(), "SCREENSHARE_FPS") {
		t.Fatalf("err = %v, want SCREENSHARE_FPS error", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero width", func(c *Config) { c.Server.Width = 0 }, "invalid size"},
		{"negative fps", func(c *Config) { c.Server.FPS = -1 }, "invalid fps"},
		{"unknown codec", func(c *Config) { c.Server.Codec = "h264" }, "unknown codec"},
		{"unknown source", func(c *Config) { c.Server.Source = "webcam" }, "unknown source"},
		{"quality", func(c *Config) { c.Server.Quality = 0 }, "quality"},
		{"empty listen", func(c *Config) { c.Server.Listen = "" }, "listen"},
		{"bad scheme", func(c *Config) { c.Client.Server = "udp://1.2.3.4:5" }, "unsupported"},
		{"poll interval", func(c *Config) { c.Client.PollInterval.Duration = 0 }, "poll_interval"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.want)
			}
		})
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screenshare.toml")
	if err := os.WriteFile(path, []byte("[server]\nfsp = 30\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "server.fsp") {
		t.Fatalf("Load = %v, want unknown key error", err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("SCREENSHARE_FPS", "")
	t.Setenv("SCREENSHARE_SOURCE", "")
	path := filepath.Join(t.TempDir(), "screenshare.toml")
	if err := os.WriteFile(path, []byte("[server]\nsource = \"pattern\"\nfps = 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Source != "pattern" || cfg.Server.FPS != 10 {
		t.Errorf("server = %+v", cfg.Server)
	}
}
