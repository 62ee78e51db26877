// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for the catalog service.
type Config struct {
	// Listen is the HTTP listen address.
	// Default: :8080
	Listen string `yaml:"listen"`

	// GitHub configures the upstream repository store.
	GitHub GitHubConfig `yaml:"github"`

	// Cache configures the listing cache.
	Cache CacheConfig `yaml:"cache"`

	// Analyzer configures the optional upload analyzer.
	Analyzer AnalyzerConfig `yaml:"analyzer"`
}

// GitHubConfig configures the repository store.
type GitHubConfig struct {
	// BaseURL is the API endpoint. HTTPS is required.
	// Default: https://api.github.com
	BaseURL string `yaml:"base_url"`

	// Token is the access token. Usually supplied via
	// MULEREPO_GITHUB_TOKEN rather than the file.
	Token string `yaml:"token"`

	// Repo is the repository holding the catalog folders, created on
	// demand on the first upload.
	// Default: mulerepo-pocs
	Repo string `yaml:"repo"`

	// Branch is the branch writes target.
	// Default: main
	Branch string `yaml:"branch"`

	// Private marks the repository private at bootstrap.
	// Default: true
	Private bool `yaml:"private"`

	// Description is the repository description at bootstrap.
	Description string `yaml:"description"`
}

// CacheConfig configures the listing cache.
type CacheConfig struct {
	// TTL is how long a listing snapshot serves before refreshing, in
	// Go duration syntax.
	// Default: 5m
	TTL string `yaml:"ttl"`

	// SnapshotPath, when set, persists the listing across restarts.
	// Default: "" (no persistence)
	SnapshotPath string `yaml:"snapshot_path"`
}

// AnalyzerConfig configures the upload analyzer. An empty Endpoint
// disables analysis; uploads still work without it.
type AnalyzerConfig struct {
	// Endpoint is the generation API base URL.
	Endpoint string `yaml:"endpoint"`

	// APIKey is usually supplied via MULEREPO_ANALYZER_KEY rather than
	// the file.
	APIKey string `yaml:"api_key"`

	// Model is the generation model name.
	// Default: gemini-2.0-flash
	Model string `yaml:"model"`
}

// Default returns the default configuration. These defaults are used
// as a base before loading the config file; the token still has to
// come from the file or the environment.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		GitHub: GitHubConfig{
			BaseURL: "https://api.github.com",
			Repo:    "mulerepo-pocs",
			Branch:  "main",
			Private: true,
		},
		Cache: CacheConfig{
			TTL: "5m",
		},
		Analyzer: AnalyzerConfig{
			Model: "gemini-2.0-flash",
		},
	}
}

// Load loads configuration from the MULEREPO_CONFIG environment
// variable.
//
// This is the only way to load configuration without an explicit path.
// If MULEREPO_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("MULEREPO_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("MULEREPO_CONFIG environment variable not set; " +
			"set it to the path of your mulerepo.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging it
// over the defaults and applying the secret environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applySecretOverrides()
	return cfg, nil
}

// applySecretOverrides pulls the two secrets from the environment.
func (c *Config) applySecretOverrides() {
	if token := os.Getenv("MULEREPO_GITHUB_TOKEN"); token != "" {
		c.GitHub.Token = token
	}
	if key := os.Getenv("MULEREPO_ANALYZER_KEY"); key != "" {
		c.Analyzer.APIKey = key
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Listen == "" {
		errs = append(errs, fmt.Errorf("listen is required"))
	}
	if c.GitHub.Token == "" {
		errs = append(errs, fmt.Errorf("github.token is required (or set MULEREPO_GITHUB_TOKEN)"))
	}
	if c.GitHub.Repo == "" {
		errs = append(errs, fmt.Errorf("github.repo is required"))
	}
	if strings.Contains(c.GitHub.Repo, "/") {
		errs = append(errs, fmt.Errorf("github.repo must be a bare repository name, not owner/name"))
	}
	if c.GitHub.BaseURL == "" {
		errs = append(errs, fmt.Errorf("github.base_url is required"))
	}
	if ttl, err := c.CacheTTL(); err != nil {
		errs = append(errs, fmt.Errorf("cache.ttl: %w", err))
	} else if ttl < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must not be negative"))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// AnalyzerEnabled reports whether the analyzer is fully configured. A
// missing endpoint or key disables analysis; uploads proceed with
// default metadata either way.
func (c *Config) AnalyzerEnabled() bool {
	return c.Analyzer.Endpoint != "" && c.Analyzer.APIKey != ""
}

// CacheTTL parses the configured cache TTL.
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Cache.TTL)
}
