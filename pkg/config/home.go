package config

import (
	"os"
	"path/filepath"
	"sync"
)

const envHome = "PAGECHECK_HOME"

// Directories below the home directory.
const (
	screenshotsDir = "screenshots"
	localesDir     = "locales"
)

// configNames are the workspace config files, in lookup order.
var configNames = []string{"pagecheck.yaml", "pagecheck.yml"}

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the workspace home: the directory the config file, the
// screenshots and the locale catalogs are found in. It is resolved once per
// process, in this order:
//  1. $PAGECHECK_HOME
//  2. The nearest directory at or above the working directory holding a
//     pagecheck.yaml (or .yml)
//  3. <prefix> when the binary runs from <prefix>/bin
//  4. The working directory
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome()
	})
	return homeDir
}

// GetScreenshotDir returns <home>/screenshots.
func GetScreenshotDir() string {
	return filepath.Join(GetHome(), screenshotsDir)
}

// GetLocaleDir returns <home>/locales, the catalog directory used when the
// config names none.
func GetLocaleDir() string {
	return filepath.Join(GetHome(), localesDir)
}

func resolveHome() string {
	if env := os.Getenv(envHome); env != "" {
		return env
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	if root, ok := findWorkspace(cwd); ok {
		return root
	}
	if prefix, ok := installPrefix(); ok {
		return prefix
	}
	return cwd
}

// findWorkspace walks up from dir to the first directory holding a config
// file.
func findWorkspace(dir string) (string, bool) {
	for {
		if configIn(dir) != "" {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// configIn returns the config file in dir, or "".
func configIn(dir string) string {
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return path
		}
	}
	return ""
}

// installPrefix returns <prefix> for a binary installed as <prefix>/bin/pagecheck.
func installPrefix() (string, bool) {
	exe, err := os.Executable()
	if err != nil {
		return "", false
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	bin := filepath.Dir(exe)
	if filepath.Base(bin) != "bin" {
		return "", false
	}
	return filepath.Dir(bin), true
}

// ResetHome forgets the resolved home directory (for testing).
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}
