// Package config loads runtime settings for the uploader CLI.
package config

import "time"

// Config holds runtime settings for the uploader.
//
// Fields:
//   - ServerBaseURL: base URL of the backend HTTP API.
//   - AuthToken: access token forwarded on API calls; empty disables auth.
//   - DatabasePath: location of the local checkpoint database.
//   - Concurrency: parallel transfers per wave; 0 selects automatically.
//   - MaxFileSizeMB: per-file size threshold in megabytes.
//   - RequestTimeout: wall-clock limit per HTTP request.
type Config struct {
	ServerBaseURL  string
	AuthToken      string
	DatabasePath   string
	Concurrency    int
	MaxFileSizeMB  int64
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:7071"
	c.AuthToken = ""
	c.DatabasePath = "uploader.db"
	c.Concurrency = 0
	c.MaxFileSizeMB = 100
	c.RequestTimeout = 60 * time.Second
}

// MaxFileSizeBytes returns the size threshold in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return c.MaxFileSizeMB << 20
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
