package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds runtime settings, loaded from environment variables.
type Config struct {
	WatchDir string
	DataDir  string
	Port     int

	PreviewSeconds float64
	WaveformWidth  int
	WaveformHeight int

	PollInterval time.Duration

	SoundCloudClientID     string
	SoundCloudClientSecret string
	SoundCloudRedirectURI  string
}

// LoadConfig reads configuration from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		WatchDir:       envStr("RELEASEDROP_WATCH_DIR", defaultWatchDir()),
		DataDir:        envStr("RELEASEDROP_DATA_DIR", "./data"),
		Port:           envInt("RELEASEDROP_PORT", 3009),
		PreviewSeconds: envFloat("RELEASEDROP_PREVIEW_SECONDS", 30),
		WaveformWidth:  envInt("RELEASEDROP_WAVEFORM_WIDTH", 800),
		WaveformHeight: envInt("RELEASEDROP_WAVEFORM_HEIGHT", 400),
		PollInterval:   time.Duration(envInt("RELEASEDROP_POLL_SECONDS", 5)) * time.Second,

		SoundCloudClientID:     envStr("SOUNDCLOUD_CLIENT_ID", ""),
		SoundCloudClientSecret: envStr("SOUNDCLOUD_CLIENT_SECRET", ""),
		SoundCloudRedirectURI:  envStr("SOUNDCLOUD_REDIRECT_URI", "http://localhost:3009/soundcloud/callback"),
	}
}

// PreviewPath returns where the preview clip for a project is written.
func (c Config) PreviewPath(projectID int64) string {
	return filepath.Join(c.DataDir, "previews", fmt.Sprintf("%d.mp3", projectID))
}

// CoverPath returns where the waveform cover for a project is written.
func (c Config) CoverPath(projectID int64) string {
	return filepath.Join(c.DataDir, "covers", fmt.Sprintf("%d.png", projectID))
}

func defaultWatchDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./ReleaseDrop"
	}
	return filepath.Join(home, "Music", "ReleaseDrop")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
