package util

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.DataDir != "./data" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Port != 3009 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.PreviewSeconds != 30 {
		t.Errorf("PreviewSeconds = %v", cfg.PreviewSeconds)
	}
	if cfg.WaveformWidth != 800 || cfg.WaveformHeight != 400 {
		t.Errorf("waveform size = %dx%d", cfg.WaveformWidth, cfg.WaveformHeight)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("RELEASEDROP_WATCH_DIR", "/tmp/drop")
	t.Setenv("RELEASEDROP_PORT", "9001")
	t.Setenv("RELEASEDROP_PREVIEW_SECONDS", "15.5")
	t.Setenv("RELEASEDROP_POLL_SECONDS", "2")

	cfg := LoadConfig()
	if cfg.WatchDir != "/tmp/drop" {
		t.Errorf("WatchDir = %q", cfg.WatchDir)
	}
	if cfg.Port != 9001 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.PreviewSeconds != 15.5 {
		t.Errorf("PreviewSeconds = %v", cfg.PreviewSeconds)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
}

func TestLoadConfigBadValuesFallBack(t *testing.T) {
	t.Setenv("RELEASEDROP_PORT", "not-a-number")
	cfg := LoadConfig()
	if cfg.Port != 3009 {
		t.Errorf("Port = %d, want default on parse failure", cfg.Port)
	}
}

func TestAssetPaths(t *testing.T) {
	cfg := Config{DataDir: "/var/releasedrop"}

	if got, want := cfg.PreviewPath(7), filepath.Join("/var/releasedrop", "previews", "7.mp3"); got != want {
		t.Errorf("PreviewPath = %q, want %q", got, want)
	}
	if got, want := cfg.CoverPath(7), filepath.Join("/var/releasedrop", "covers", "7.png"); got != want {
		t.Errorf("CoverPath = %q, want %q", got, want)
	}
}

func TestPretty(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tc := range cases {
		if got := Pretty(tc.in); got != tc.want {
			t.Errorf("Pretty(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
