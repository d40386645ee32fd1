package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the full configuration required to initialise the audit engine.
type Config struct {
	Audit   AuditConfig   `yaml:"audit"`
	Logging LoggingConfig `yaml:"logging"`
}

// AuditConfig controls crawl limits, politeness, and fetch behaviour.
type AuditConfig struct {
	UserAgent       string   `yaml:"user_agent"`
	MaxPages        int      `yaml:"max_pages"`
	Concurrency     int      `yaml:"concurrency"`
	HostRatePerSec  float64  `yaml:"host_rate_per_sec"`
	ConnectTimeout  Duration `yaml:"connect_timeout"`
	RequestTimeout  Duration `yaml:"request_timeout"`
	Deadline        Duration `yaml:"deadline"`
	MaxBodyBytes    int64    `yaml:"max_body_bytes"`
	MaxRedirects    int      `yaml:"max_redirects"`
	RespectRobots   bool     `yaml:"respect_robots"`
	SitemapMaxDepth int      `yaml:"sitemap_max_depth"`
	SitemapMaxURLs  int      `yaml:"sitemap_max_urls"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Default returns a Config populated with the audit engine defaults.
func Default() Config {
	return Config{
		Audit: AuditConfig{
			UserAgent:       "seo-audit-bot/1.0 (Technical SEO Audit Tool)",
			MaxPages:        9999,
			Concurrency:     10,
			HostRatePerSec:  2,
			ConnectTimeout:  DurationFrom(10 * time.Second),
			RequestTimeout:  DurationFrom(30 * time.Second),
			Deadline:        DurationFrom(0),
			MaxBodyBytes:    10 * 1024 * 1024,
			MaxRedirects:    10,
			RespectRobots:   false,
			SitemapMaxDepth: 5,
			SitemapMaxURLs:  50000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: true,
		},
	}
}

// Load reads, merges, and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces required invariants for the audit configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Audit.UserAgent) == "" {
		return errors.New("audit.user_agent must be set")
	}
	if c.Audit.MaxPages < 1 {
		return fmt.Errorf("audit.max_pages must be >= 1 (got %d)", c.Audit.MaxPages)
	}
	if c.Audit.Concurrency <= 0 {
		return fmt.Errorf("audit.concurrency must be > 0 (got %d)", c.Audit.Concurrency)
	}
	if c.Audit.HostRatePerSec <= 0 {
		return fmt.Errorf("audit.host_rate_per_sec must be > 0 (got %g)", c.Audit.HostRatePerSec)
	}
	if c.Audit.MaxBodyBytes <= 0 {
		return fmt.Errorf("audit.max_body_bytes must be > 0 (got %d)", c.Audit.MaxBodyBytes)
	}
	if c.Audit.MaxRedirects <= 0 {
		return fmt.Errorf("audit.max_redirects must be > 0 (got %d)", c.Audit.MaxRedirects)
	}
	if c.Audit.SitemapMaxDepth <= 0 {
		return fmt.Errorf("audit.sitemap_max_depth must be > 0 (got %d)", c.Audit.SitemapMaxDepth)
	}
	if c.Audit.SitemapMaxURLs <= 0 {
		return fmt.Errorf("audit.sitemap_max_urls must be > 0 (got %d)", c.Audit.SitemapMaxURLs)
	}
	return nil
}

func (c *Config) normalise() {
	c.Audit.UserAgent = strings.TrimSpace(c.Audit.UserAgent)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
}
