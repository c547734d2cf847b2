package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devicelab-dev/pagecheck/pkg/core"
)

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "pagecheck.yaml")

	content := `
defaultTimeoutMs: 5000
pollIntervalMs: 50
screenshotDir: /tmp/shots
browser: safari
lenientBrowsers:
  - Safari
  - edge
locale: fr
fallbackLocale: en
localeDir: ./locales
strictLocators: true
screenshots: false
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DefaultTimeout() != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.DefaultTimeout())
	}
	if cfg.PollInterval() != 50*time.Millisecond {
		t.Errorf("expected poll interval 50ms, got %v", cfg.PollInterval())
	}
	if cfg.ScreenshotDir != "/tmp/shots" {
		t.Errorf("expected screenshotDir /tmp/shots, got %s", cfg.ScreenshotDir)
	}
	if cfg.BrowserFor("chrome") != "safari" {
		t.Errorf("configured browser should override the driver's, got %s", cfg.BrowserFor("chrome"))
	}
	if len(cfg.LenientBrowsers) != 2 || cfg.LenientBrowsers[0] != "Safari" {
		t.Errorf("expected lenient browsers [Safari edge], got %v", cfg.LenientBrowsers)
	}
	if cfg.Locale != "fr" || cfg.FallbackLocale != "en" {
		t.Errorf("expected locale fr/en, got %s/%s", cfg.Locale, cfg.FallbackLocale)
	}
	if !cfg.StrictLocators {
		t.Error("expected strictLocators true")
	}
	if cfg.ScreenshotsEnabled() {
		t.Error("expected screenshots disabled")
	}
	if cfg.HighlightStyle != core.DefaultHighlightStyle {
		t.Errorf("expected default highlight style, got %q", cfg.HighlightStyle)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/pagecheck.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "pagecheck.yaml")

	content := `lenientBrowsers: [invalid yaml`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "pagecheck.yaml")

	content := "defaultTimeoutMs: 100\npollIntervalMs: 500\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(configPath)
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	ResetHome()
	t.Setenv("PAGECHECK_HOME", "/test/home")

	dir := t.TempDir()
	configPath := filepath.Join(dir, "pagecheck.yaml")

	if err := os.WriteFile(configPath, []byte(``), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DefaultTimeoutMs != DefaultTimeoutMs {
		t.Errorf("expected default timeout, got %d", cfg.DefaultTimeoutMs)
	}
	if cfg.ScreenshotDir != filepath.Join("/test/home", "screenshots") {
		t.Errorf("expected home screenshot dir, got %s", cfg.ScreenshotDir)
	}
	if cfg.Browser != "" {
		t.Errorf("browser should default to the driver's identity, got %s", cfg.Browser)
	}
	if got := cfg.BrowserFor("static"); got != "static" {
		t.Errorf("BrowserFor(static) = %s", got)
	}
	if cfg.FallbackLocale != DefaultLocale {
		t.Errorf("expected fallback locale %s, got %s", DefaultLocale, cfg.FallbackLocale)
	}
	if !cfg.ScreenshotsEnabled() || !cfg.IsHeadless() {
		t.Error("screenshots and headless should default to true")
	}
	if len(cfg.LenientBrowsers) != 0 {
		t.Error("no browser should be lenient by default")
	}
}

func TestLoadFromDir_ConfigYml(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "pagecheck.yml")

	if err := os.WriteFile(configPath, []byte(`browser: firefox`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Browser != "firefox" {
		t.Errorf("expected browser firefox, got %s", cfg.Browser)
	}
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DefaultTimeoutMs != DefaultTimeoutMs {
		t.Errorf("expected default timeout, got %d", cfg.DefaultTimeoutMs)
	}
}

func TestLoadFromDir_PrefersYamlOverYml(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "pagecheck.yaml"), []byte(`browser: chrome`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pagecheck.yml"), []byte(`browser: firefox`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Browser != "chrome" {
		t.Errorf("expected browser chrome (from pagecheck.yaml), got %s", cfg.Browser)
	}
}

func TestScreenshotPath(t *testing.T) {
	t.Setenv("PAGECHECK_HOME", "/opt/pagecheck")
	ResetHome()
	defer ResetHome()

	tests := []struct {
		dir  string
		want string
	}{
		{"", "/opt/pagecheck/screenshots"},
		{"out/shots", "/opt/pagecheck/out/shots"},
		{"/var/shots", "/var/shots"},
	}
	for _, tt := range tests {
		cfg := &Config{ScreenshotDir: tt.dir}
		if got := cfg.ScreenshotPath(); got != tt.want {
			t.Errorf("ScreenshotPath(%q) = %q, want %q", tt.dir, got, tt.want)
		}
	}

	if got := (&Config{}).LocalePath(); got != "" {
		t.Errorf("LocalePath() = %q, want empty", got)
	}
	if got := (&Config{LocaleDir: "i18n"}).LocalePath(); got != "/opt/pagecheck/i18n" {
		t.Errorf("LocalePath() = %q", got)
	}
}
