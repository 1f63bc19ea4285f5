// Package config loads the run configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// GitHub holds the API credentials. The GITHUB_TOKEN environment variable
// overrides the file so tokens can stay out of checked-in configuration.
type GitHub struct {
	Username string `yaml:"username"`
	Token    string `yaml:"token"`
}

// Config is the full run configuration.
type Config struct {
	GitHub GitHub `yaml:"github"`
	// Orgs limits which organizations are verified. Empty means every org
	// the authenticated user belongs to.
	Orgs []string `yaml:"orgs"`
	// DataDir receives downloaded snapshots and intermediate files.
	DataDir string `yaml:"data_dir"`
	// ReportDir receives the generated CSV reports.
	ReportDir string `yaml:"report_dir"`
	// SnapshotRoot, when set, is the root the warehouse snapshots are
	// fetched from and reports are uploaded to.
	SnapshotRoot string `yaml:"snapshot_root"`
	// Workers bounds concurrent repository audits.
	Workers int `yaml:"workers"`
	// RequestTimeoutSeconds is the per-request HTTP timeout.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Load reads the configuration file, applies defaults, and overlays the
// token from the environment. A missing file yields the defaults, so the
// tool works with nothing but GITHUB_TOKEN set.
func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir:               "data",
		ReportDir:             "data-verification",
		Workers:               4,
		RequestTimeoutSeconds: 30,
	}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to env overlay
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.RequestTimeoutSeconds < 1 {
		cfg.RequestTimeoutSeconds = 30
	}
	return cfg, nil
}
