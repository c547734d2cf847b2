package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetHome_EnvVar(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)
	t.Setenv("PAGECHECK_HOME", "/custom/path")

	if got := GetHome(); got != "/custom/path" {
		t.Errorf("GetHome() = %q, want %q", got, "/custom/path")
	}
}

func TestGetHome_Cached(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)
	t.Setenv("PAGECHECK_HOME", "/first")

	first := GetHome()
	t.Setenv("PAGECHECK_HOME", "/second")
	if second := GetHome(); first != second {
		t.Errorf("GetHome() not cached: first=%q, second=%q", first, second)
	}
}

func TestGetHome_Fallback(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)
	t.Setenv("PAGECHECK_HOME", "")

	if got := GetHome(); got == "" {
		t.Error("GetHome() returned empty string")
	}
}

func TestFindWorkspace(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "checks", "checkout")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "pagecheck.yml"), []byte("locale: de\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		dir  string
		want string
	}{
		{root, root},
		{nested, root},
	}
	for _, tt := range tests {
		got, ok := findWorkspace(tt.dir)
		if !ok || got != tt.want {
			t.Errorf("findWorkspace(%q) = %q, %v, want %q", tt.dir, got, ok, tt.want)
		}
	}

	// A directory named like the config file is not a workspace.
	bare := t.TempDir()
	if err := os.Mkdir(filepath.Join(bare, "pagecheck.yaml"), 0o755); err != nil {
		t.Fatal(err)
	}
	if got := configIn(bare); got != "" {
		t.Errorf("configIn() = %q for a directory", got)
	}
}

func TestHomeDirs(t *testing.T) {
	ResetHome()
	t.Cleanup(ResetHome)
	t.Setenv("PAGECHECK_HOME", "/test/home")

	if got, want := GetScreenshotDir(), filepath.Join("/test/home", "screenshots"); got != want {
		t.Errorf("GetScreenshotDir() = %q, want %q", got, want)
	}
	if got, want := GetLocaleDir(), filepath.Join("/test/home", "locales"); got != want {
		t.Errorf("GetLocaleDir() = %q, want %q", got, want)
	}
}
