// Package config loads the crawler's run configuration: where the ODE
// service lives, where the registry/cache/STAC tree are materialized on
// disk, and the concurrency/retry knobs the http and extract packages use.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration is the immutable, fully-resolved configuration a run is
// built from. Load never returns a partially-zeroed value: any field a
// caller omits is filled from Default() before validation.
type Configuration struct {
	// OdeBaseURL is the root of the ODE REST service, e.g.
	// "https://oderest.rsl.wustl.edu/live2".
	OdeBaseURL string `yaml:"ode_base_url"`
	// OdeWebsiteBaseURL is the root of the ODE archive website used for
	// catalog discovery crawling.
	OdeWebsiteBaseURL string `yaml:"ode_website_base_url"`

	// WorkingDir is the root the registry, file cache, and STAC tree are
	// all materialized under.
	WorkingDir string `yaml:"working_dir"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`

	// HTTPTimeout bounds a single HTTP round trip.
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	// MaxRetries is the number of retry attempts the fetcher makes for a
	// retryable status code before giving up.
	MaxRetries int `yaml:"max_retries"`
	// DownloadConcurrency bounds the number of in-flight downloads the
	// bounded worker pool runs at once.
	DownloadConcurrency int `yaml:"download_concurrency"`

	// Bodies restricts extraction to these target-body names when
	// non-empty (case-insensitive), matching the "body" selector.
	Bodies []string `yaml:"bodies"`
	// Missions restricts extraction to these instrument-host ids when
	// non-empty, matching the "mission" selector.
	Missions []string `yaml:"missions"`
	// DatasetID restricts extraction and ingest checks to one dataset id
	// (case-insensitive) when non-empty, matching the "--dataset_id"
	// selector.
	DatasetID string `yaml:"dataset_id"`

	// MetricsAddr is read from the YAML overlay; no component of the
	// crawler opens a listener on it.
	MetricsAddr string `yaml:"metrics_addr"`
	// ReportPath, when non-empty, is where the markdown error/warning
	// report is written after a run.
	ReportPath string `yaml:"report_path"`
}

// Default returns the configuration a bare invocation runs with.
func Default() Configuration {
	return Configuration{
		OdeBaseURL:          "https://oderest.rsl.wustl.edu/live2",
		OdeWebsiteBaseURL:   "https://ode.rsl.wustl.edu",
		WorkingDir:          "./var/pds-crawler",
		LogLevel:            "info",
		HTTPTimeout:         30 * time.Second,
		MaxRetries:          2,
		DownloadConcurrency: 8,
		ReportPath:          "./var/pds-crawler/report.md",
	}
}

// Load reads a YAML file at path and overlays it on Default(). An empty
// path returns Default() unchanged.
func Load(path string) (Configuration, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Configuration{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects a configuration with contradictory or unusable values.
func (c Configuration) Validate() error {
	if c.OdeBaseURL == "" {
		return fmt.Errorf("ode_base_url must not be empty")
	}
	if c.WorkingDir == "" {
		return fmt.Errorf("working_dir must not be empty")
	}
	if c.DownloadConcurrency <= 0 {
		return fmt.Errorf("download_concurrency must be positive, got %d", c.DownloadConcurrency)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	return nil
}

// RegistryDir is the bbolt-backed registry's database directory.
func (c Configuration) RegistryDir() string { return c.WorkingDir + "/registry" }

// FileCacheDir is where downloaded PDS3 label and data files land.
func (c Configuration) FileCacheDir() string { return c.WorkingDir + "/files" }

// StacDir is the root of the materialized STAC tree.
func (c Configuration) StacDir() string { return c.WorkingDir + "/stac" }
