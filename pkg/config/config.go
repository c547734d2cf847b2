// Package config handles configuration for pagecheck.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/pagecheck/pkg/core"
)

// Defaults used when a setting is absent.
const (
	DefaultTimeoutMs      = 15000
	DefaultPollIntervalMs = 100
	DefaultLocale         = "en"
)

// Config represents the workspace configuration (pagecheck.yaml).
type Config struct {
	// Waiting
	DefaultTimeoutMs int `yaml:"defaultTimeoutMs"` // Bound for every wait without an explicit timeout
	PollIntervalMs   int `yaml:"pollIntervalMs"`   // Sleep between polling ticks

	// Evidence
	ScreenshotDir  string `yaml:"screenshotDir"`  // Relative paths resolve against GetHome()
	HighlightStyle string `yaml:"highlightStyle"` // Inline style applied to failing elements
	Screenshots    *bool  `yaml:"screenshots"`    // Default: true

	// Browser
	Browser         string   `yaml:"browser"`         // Overrides the identity the driver reports
	LenientBrowsers []string `yaml:"lenientBrowsers"` // Browsers whose string equality folds case and trims
	Headless        *bool    `yaml:"headless"`        // Default: true
	ControlURL      string   `yaml:"controlURL"`      // Connect to a running browser instead of launching one

	// Localization
	Locale         string `yaml:"locale"`
	FallbackLocale string `yaml:"fallbackLocale"`
	LocaleDir      string `yaml:"localeDir"` // Directory of <locale>.yaml catalogs

	// Locators
	StrictLocators bool `yaml:"strictLocators"` // Reject patterns carrying both dialects' markers
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromDir looks for pagecheck.yaml or pagecheck.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	if configPath := configIn(dir); configPath != "" {
		return Load(configPath)
	}

	// No config file found, use defaults
	return Default(), nil
}

func (c *Config) applyDefaults() {
	if c.DefaultTimeoutMs == 0 {
		c.DefaultTimeoutMs = DefaultTimeoutMs
	}
	if c.PollIntervalMs == 0 {
		c.PollIntervalMs = DefaultPollIntervalMs
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = GetScreenshotDir()
	}
	if c.HighlightStyle == "" {
		c.HighlightStyle = core.DefaultHighlightStyle
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.FallbackLocale == "" {
		c.FallbackLocale = c.Locale
	}
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.DefaultTimeoutMs < 0 {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("defaultTimeoutMs must not be negative, got %d", c.DefaultTimeoutMs))
	}
	if c.PollIntervalMs < 0 {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("pollIntervalMs must not be negative, got %d", c.PollIntervalMs))
	}
	if c.PollIntervalMs > c.DefaultTimeoutMs {
		return core.ErrInvalidConfig.WithMessage("pollIntervalMs must not exceed defaultTimeoutMs")
	}
	return nil
}

// DefaultTimeout returns the process-wide wait bound.
func (c *Config) DefaultTimeout() time.Duration {
	return time.Duration(c.DefaultTimeoutMs) * time.Millisecond
}

// PollInterval returns the sleep between polling ticks.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// ScreenshotsEnabled reports whether failure evidence is captured.
func (c *Config) ScreenshotsEnabled() bool {
	return c.Screenshots == nil || *c.Screenshots
}

// IsHeadless reports whether a launched browser runs headless.
func (c *Config) IsHeadless() bool {
	return c.Headless == nil || *c.Headless
}

// BrowserFor returns the configured browser identity, or reported (the
// driver's own) when none is configured.
func (c *Config) BrowserFor(reported string) string {
	if b := strings.TrimSpace(c.Browser); b != "" {
		return b
	}
	return reported
}

// ScreenshotPath returns the screenshot directory, resolving a relative
// setting against GetHome().
func (c *Config) ScreenshotPath() string {
	if c.ScreenshotDir == "" {
		return GetScreenshotDir()
	}
	if filepath.IsAbs(c.ScreenshotDir) {
		return c.ScreenshotDir
	}
	return filepath.Join(GetHome(), c.ScreenshotDir)
}

// LocalePath returns the catalog directory, or "" when none is configured.
func (c *Config) LocalePath() string {
	if c.LocaleDir == "" || filepath.IsAbs(c.LocaleDir) {
		return c.LocaleDir
	}
	return filepath.Join(GetHome(), c.LocaleDir)
}
